// Package validator provides composable, synchronous validation rules used
// across the authentication flows.
//
// Rules are pure checks paired with a field-scoped error. Apply runs a rule
// set and returns ValidationErrors, allowing callers to fail fast on bad
// input before touching the network:
//
//	if err := validator.Apply(
//		validator.ValidEmail("email", email),
//		validator.StrongPassword("password", password, validator.DefaultPasswordStrength()),
//		validator.NotCommonPassword("password", password),
//	); err != nil {
//		// render inline field errors from validator.ExtractValidationErrors(err)
//	}
package validator
