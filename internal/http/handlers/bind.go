package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds the body into out and answers the request itself on
// failure, so handlers can just bail out.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, bindErrorMessage(err))

		return false
	}

	return true
}

func bindErrorMessage(err error) string {
	var validatorErrs validator.ValidationErrors

	if errors.As(err, &validatorErrs) {
		parts := make([]string, 0, len(validatorErrs))

		for _, fe := range validatorErrs {
			parts = append(parts, strings.ToLower(fe.Field())+" "+validationMessage(fe.Tag(), fe.Param()))
		}

		return "Invalid request: " + strings.Join(parts, ", ")
	}

	return "Invalid request body"
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return "failed " + rule + " validation (" + param + ")"
		}
		return "failed " + rule + " validation"
	}
}
