package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldMessages holds the German messages shown for a failed rule, keyed by
// JSON field name and then by validation tag.
var fieldMessages = map[string]map[string]string{
	"email": {
		"required": "Email ist erforderlich",
		"email":    "Bitte gib eine gültige Email-Adresse ein",
	},
	"name":      {"required": "Name ist erforderlich"},
	"firstName": {"required": "Name ist erforderlich"},
	"lastName":  {"required": "Name ist erforderlich"},
	"program": {
		"required": "Programm-Auswahl ist erforderlich",
		"oneof":    "Ungültige Programm-Auswahl",
	},
	"company": {"required": "Unternehmen ist erforderlich"},
	"revenue": {"required": "Jahresumsatz ist erforderlich"},
	"goals":   {"required": "Ziele sind erforderlich"},
	"status": {
		"alphanum": "Ungültiger Status",
		"max":      "Ungültiger Status",
	},
	"search": {"max": "Suchbegriff ist zu lang"},
}

const msgInvalidInput = "Ungültige Eingabe"

// newValidator returns a validator that reports JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns the first failed rule of err into a user message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalidInput
	}
	first := verrs[0]
	if msg, ok := fieldMessages[first.Field()][first.Tag()]; ok {
		return msg
	}
	return msgInvalidInput
}
