// Package validate wraps go-playground/validator with lab-specific rules and
// API-friendly error formatting.
package validate

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// sampleCodePattern matches intake codes like "24-0153" or "LAB-2024-001".
var sampleCodePattern = regexp.MustCompile(`^[A-Za-z0-9]+(-[A-Za-z0-9]+)+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("sample_code", validateSampleCode)
	validate.RegisterValidation("sla_type", validateSLAType)
}

// Struct validates a struct according to its `validate` tags.
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// FormatErrors flattens validator errors into a single human-readable message.
func FormatErrors(err error) string {
	if err == nil {
		return ""
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	var msgs []string
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "sample_code":
			msgs = append(msgs, field+" must be a hyphenated alphanumeric code")
		case "sla_type":
			msgs = append(msgs, field+" must be \"normal\" or \"express\"")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+strings.Join(strings.Fields(fe.Param()), ", "))
		case "max":
			msgs = append(msgs, field+" must be at most "+fe.Param())
		case "min":
			msgs = append(msgs, field+" must be at least "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}

func validateSampleCode(fl validator.FieldLevel) bool {
	return sampleCodePattern.MatchString(fl.Field().String())
}

func validateSLAType(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "normal" || v == "express"
}
