package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"facility-reservation-backend/internal/model"
)

// registerValidators installs the domain formats on Gin's binding
// engine so request structs can declare them as tags.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		return model.ValidClockTime(fl.Field().String())
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return model.ValidWeekday(fl.Field().String())
	})
}
