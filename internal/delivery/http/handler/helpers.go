package handler

import (
	stderrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/route-planner/internal/editor"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	pkgvalidator "github.com/route-planner/internal/pkg/validator"
)

// parseBody разбирает и валидирует тело запроса
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errors.ErrInvalidRequest.WithMessage("Invalid request body")
	}
	return validate(req)
}

// validate переводит ошибки validator в INVALID_REQUEST с полями в details
func validate(req interface{}) error {
	err := pkgvalidator.Validate(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		details := make(map[string]interface{}, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return errors.ErrInvalidRequest.WithDetails(details)
	}
	return errors.ErrInvalidRequest.WithMessage(err.Error())
}

// paramIndex читает неотрицательный индекс из пути
func paramIndex(c *fiber.Ctx, name string) (int, error) {
	v, err := c.ParamsInt(name, -1)
	if err != nil || v < 0 {
		return 0, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{name: "must be a non-negative integer"})
	}
	return v, nil
}

func sendView(c *fiber.Ctx, view editor.View) error {
	return utils.SendSuccess(c, view, viewMeta(view))
}

func viewMeta(view editor.View) *utils.Meta {
	return &utils.Meta{
		Loading: view.Loading,
		CanUndo: view.CanUndo,
		CanRedo: view.CanRedo,
		Notice:  view.Notice,
	}
}
