package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

const refreshCookie = "refresh_token"

// AuthHandler handles sign-up, sessions and the caller's own profile.
type AuthHandler struct {
	Svc *scheduling.Service
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *scheduling.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Svc: svc, Cfg: cfg}
}

// RegisterRequest is the sign-up body. Organization accounts must name
// their organization.
type RegisterRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8,max=72"`
	Role             string `json:"role" binding:"required,oneof=organization patient"`
	OrganizationName string `json:"organization_name"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Svc.Register(c.Request.Context(), scheduling.RegisterInput{
		FullName:         req.FullName,
		Email:            req.Email,
		Password:         req.Password,
		Role:             models.Role(req.Role),
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "User registered successfully", user.Sanitize())
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string                `json:"access_token"`
	RefreshToken string                `json:"refresh_token"`
	User         *models.UserSanitized `json:"user,omitempty"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, scheduling.ErrUnauthorized) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	access, refresh, ok := h.issueTokens(c, user)
	if !ok {
		return
	}
	profile := user.Sanitize()
	utils.Success(c, "Login successful", TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &profile,
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken rotates a refresh token taken from the cookie or the body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookie)
	if err != nil || token == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		token = req.RefreshToken
	}

	claims, err := utils.ValidateToken(token, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token structure or signature: "+err.Error())
		return
	}

	user, err := h.Svc.ConsumeRefreshToken(c.Request.Context(), claims.UserID, token)
	if errors.Is(err, scheduling.ErrUnauthorized) || errors.Is(err, scheduling.ErrNotFound) {
		utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		return
	}
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	access, refresh, ok := h.issueTokens(c, user)
	if !ok {
		return
	}
	utils.Success(c, "Access token refreshed successfully", TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the refresh token and clears the cookie. Unknown tokens
// still log out successfully.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)
	if token == "" {
		var req LogoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Invalid request payload: "+err.Error())
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}

	if err := h.Svc.RevokeRefreshToken(c.Request.Context(), token); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", h.secureCookie(), true)
	utils.Success(c, "Logout successful", nil)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	user, err := h.Svc.GetProfile(c.Request.Context(), who)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest changes the display name; an empty password keeps
// the current one.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Svc.UpdateProfile(c.Request.Context(), who, c.Param("id"), req.FullName, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) (string, string, bool) {
	access, refresh, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return "", "", false
	}
	ttl := utils.RefreshTokenTTL(h.Cfg)
	if err := h.Svc.SaveRefreshToken(c.Request.Context(), user.ID, refresh, ttl); err != nil {
		utils.RespondError(c, err)
		return "", "", false
	}
	c.SetCookie(refreshCookie, refresh, int(ttl.Seconds()), "/", "", h.secureCookie(), true)
	return access, refresh, true
}

func (h *AuthHandler) secureCookie() bool {
	return h.Cfg.Environment != "development" && h.Cfg.Environment != "test"
}
