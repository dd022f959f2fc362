package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// avatar ids arrive from the client's local state; catch obvious
	// duplicates before they hit the store
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	return v
}

// createOrderStructValidation rejects duplicate avatar ids in a single order.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	seen := map[string]bool{}
	for _, id := range req.AvatarIDs {
		if seen[id] {
			sl.ReportError(req.AvatarIDs, "avatarIds", "AvatarIDs", "unique_avatar_ids", id)
			return
		}
		seen[id] = true
	}
}
