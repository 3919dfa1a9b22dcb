package dsn

import "errors"

var (
	// ErrMalformedDSN indicates a string that isn't a URL with both a scheme
	// and a host.
	ErrMalformedDSN = errors.New("Malformed DSN")

	// ErrInvalidScheme indicates a scheme outside AllowedSchemes.
	ErrInvalidScheme = errors.New("Invalid scheme")

	// ErrUnknownOption indicates a query parameter that doesn't name an
	// assignable mailer field.
	ErrUnknownOption = errors.New("Unknown option")
)
