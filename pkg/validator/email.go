package validator

import (
	"net/mail"
	"strings"
)

// ValidEmail validates that a string is a valid email address.
// Uses the RFC 5322 parser first, then applies stricter checks suitable
// for addresses collected through web forms.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}

			addr, err := mail.ParseAddress(value)
			if err != nil {
				return false
			}

			email := addr.Address
			parts := strings.Split(email, "@")
			if len(parts) != 2 {
				return false
			}

			local := parts[0]
			domain := parts[1]

			if local == "" {
				return false
			}

			// Domain must contain at least one dot and cannot start/end with one
			if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
				return false
			}

			// Reject display-name forms like "Name <a@b.c>" that the parser accepts
			return email == value
		},
		Error: ValidationError{
			Field:   field,
			Message: "must be a valid email address",
		},
	}
}

// RequiredString validates that a string is not empty after trimming whitespace.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:   field,
			Message: "is required",
		},
	}
}
