package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation
// registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for ProductRequest: the decimal
	// price must not be negative, which field tags cannot express.
	v.RegisterStructValidation(productStructValidation, ProductRequest{})

	return v
}

// productStructValidation rejects negative prices.
func productStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ProductRequest)

	if req.Price.IsNegative() {
		sl.ReportError(req.Price, "price", "Price", "price_non_negative", "")
	}
}
