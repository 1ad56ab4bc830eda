package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("invalid input")
	ErrInvalidTaxID        = errors.New("invalid tax identifier")
	ErrLookupUnavailable   = errors.New("lookup service unavailable")
	ErrCatalogMismatch     = errors.New("document not available for this registration kind")
	ErrIssuanceRejected    = errors.New("issuance rejected")
	ErrIssuanceUnavailable = errors.New("issuance service unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
