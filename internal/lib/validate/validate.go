package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

func Struct(s interface{}) error {
	return get().Struct(s)
}

// FirstField returns the struct field name of the first failed rule, or an
// empty string when err is not a validation error.
func FirstField(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return ""
	}
	return errs[0].StructField()
}
