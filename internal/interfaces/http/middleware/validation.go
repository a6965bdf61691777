package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/resys/stockledger/internal/domain/inventory"
)

// ValidationIssue is one field that failed binding validation
type ValidationIssue struct {
	Field   string
	Message string
}

// SetupValidator registers the custom tags used by request DTOs and reports
// fields by their json or form name. It is safe to call more than once.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(fieldName)
	return v.RegisterValidation("originator", validateOriginator)
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func validateOriginator(fl validator.FieldLevel) bool {
	return inventory.Originator(fl.Field().String()).IsValid()
}

// ValidationIssues flattens validator errors. It returns nil for other errors.
func ValidationIssues(err error) []ValidationIssue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	issues := make([]ValidationIssue, 0, len(verrs))
	for _, e := range verrs {
		issues = append(issues, ValidationIssue{Field: e.Field(), Message: validationMessage(e)})
	}
	return issues
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "ne":
		return "Must not be " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "originator":
		names := make([]string, len(inventory.AllOriginators))
		for i, o := range inventory.AllOriginators {
			names[i] = o.String()
		}
		return "Must be one of: " + strings.Join(names, " ")
	default:
		return "Invalid value"
	}
}
