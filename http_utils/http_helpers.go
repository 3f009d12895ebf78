package http_utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// ValidationFailed describes a request body that could not be bound. Field
// errors from the validator are listed one per entry.
func ValidationFailed(err error) ValidationErrorResponse {
	response := ValidationErrorResponse{
		BaseResponse: NewBaseResponse(false, "invalid body, validation failed"),
		Errors:       []string{},
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.Errors = append(response.Errors, err.Error())
		return response
	}

	response.Errors = lo.Map(verrs, func(item validator.FieldError, index int) string {
		return item.Error()
	})

	return response
}
