package validator

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Loose on purpose: front desks enter numbers with spaces and dashes.
var phoneRE = regexp.MustCompile(`^\+?[0-9][0-9\- ]{6,19}$`)

// RegisterCustom installs domain validations on gin's binding engine.
// Tags registered here are usable in binding struct tags.
func RegisterCustom() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine")
	}

	return engine.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		return phoneRE.MatchString(value)
	})
}
