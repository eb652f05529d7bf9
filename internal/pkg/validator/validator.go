package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/route-planner/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("visibility", validateVisibility)
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

func validateVisibility(fl validator.FieldLevel) bool {
	switch domain.Visibility(fl.Field().String()) {
	case domain.VisibilityPublic, domain.VisibilityPrivate, domain.VisibilityLinkOnly:
		return true
	}
	return false
}
