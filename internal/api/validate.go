package api

import "github.com/go-playground/validator/v10"

// NewValidator returns a validator with the custom tags used by the input types registered
func NewValidator() *validator.Validate {
	validate := validator.New()

	// Usernames: alphanumeric, hyphens and underscores only
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, char := range value {
			if !((char >= 'a' && char <= 'z') ||
				(char >= 'A' && char <= 'Z') ||
				(char >= '0' && char <= '9') ||
				char == '-' ||
				char == '_') {
				return false
			}
		}
		return true
	})

	return validate
}
