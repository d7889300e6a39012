package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/scheduling"
)

// ResponseData is the envelope every API response uses.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a 200 response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response with the given status.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
	})
}

func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, errorMessage)
}

func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

func Conflict(c *gin.Context, errorMessage string) {
	Error(c, http.StatusConflict, errorMessage)
}

func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// StatusFor maps a scheduling error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scheduling.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, scheduling.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err using its scheduling kind. Unclassified errors are
// reported as a generic 500 so storage details never reach the client.
func RespondError(c *gin.Context, err error) {
	switch status := StatusFor(err); status {
	case http.StatusBadRequest:
		BadRequest(c, err.Error())
	case http.StatusForbidden:
		Forbidden(c, err.Error())
	case http.StatusNotFound:
		NotFound(c, err.Error())
	case http.StatusConflict:
		Conflict(c, err.Error())
	default:
		_ = c.Error(err)
		InternalServerError(c, "Internal server error")
	}
}
