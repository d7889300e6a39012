package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags on s.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// FormatValidationError renders validator errors as "field: rule" pairs.
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", e.Field(), e.Tag(), e.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Tag()))
	}
	return strings.Join(msgs, ", ")
}

// BindAndValidate binds the JSON body into obj and validates it. On failure
// it writes a 400 and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	if err := Validate(obj); err != nil {
		BadRequest(c, "Validation failed: "+FormatValidationError(err))
		return false
	}
	return true
}
