package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/vg-orderflow/internal/pos"
	"github.com/imrishuroy/vg-orderflow/internal/pricing"
)

// New returns a validator with the struct-level rules of the configuration
// documents registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(pricing.TableStructValidation, pricing.Table{})
	v.RegisterStructValidation(pos.CatalogStructValidation, pos.Catalog{})

	return v
}

// ErrorsToMap flattens validator errors into field -> message.
func ErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Error()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
