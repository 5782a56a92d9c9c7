package gateway

import (
	"sync"

	"github.com/example/chefbazaar/pkg/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the domain tags used in request bindings.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("requesttype", func(fl validator.FieldLevel) bool {
			return models.RequestType(fl.Field().String()).Valid()
		})
	})
}
