package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validate checks the input structs below. It is safe for concurrent use.
var validate = newValidator()

// searchInput is a free-text search request as received.
type searchInput struct {
	Query string `json:"q" validate:"notblank,max=200"`
	Limit int    `json:"limit" validate:"min=1,max=50"`
}

// chatInput is a chat request as received. Length is checked before
// emptiness so a long run of spaces reports as too long.
type chatInput struct {
	Message string `json:"message" validate:"max=1000,notblank"`
	PaperID string `json:"paper_id" validate:"notblank"`
}

type paperIDInput struct {
	PaperID string `json:"paper_id" validate:"notblank"`
}

// fieldLabels are the human names used in validation messages.
var fieldLabels = map[string]string{
	"q":        "query",
	"message":  "message",
	"paper_id": "paper ID",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return v
}

// validateInput runs the struct validator and reports the first failure as a
// *ValidationError keyed by the JSON field name.
func validateInput(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationError("request", "invalid request")
	}

	fe := verrs[0]
	field := fe.Field()
	if field == "limit" {
		return NewValidationError(field, fmt.Sprintf("limit must be between %d and %d", MinSearchLimit, MaxSearchLimit))
	}

	label := fieldLabels[field]
	if label == "" {
		label = field
	}
	switch fe.Tag() {
	case "notblank":
		return NewValidationError(field, label+" cannot be empty")
	case "max":
		return NewValidationError(field, fmt.Sprintf("%s too long (max %s characters)", label, fe.Param()))
	default:
		return NewValidationError(field, label+" is invalid")
	}
}
