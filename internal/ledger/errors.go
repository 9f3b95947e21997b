package ledger

import "errors"

// Caller-input errors are returned as-is and never retried.
var (
	// ErrInvalidFilter reports a malformed year, quarter or month descriptor.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrUnknownPartner reports a partner name that does not resolve.
	ErrUnknownPartner = errors.New("unknown partner")
	// ErrNotFound reports an update that targets a missing transaction.
	ErrNotFound = errors.New("transaction not found")
	// ErrMissingField reports a create without its required fields.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField reports a field value that cannot be coerced.
	ErrInvalidField = errors.New("invalid field value")
	// ErrUnknownField reports a field name the ledger does not know.
	ErrUnknownField = errors.New("unknown field")
	// ErrReadOnlyField reports an attempt to write an engine-owned field.
	ErrReadOnlyField = errors.New("read-only field")
	// ErrUnknownOperation reports a dispatch to an operation that is not registered.
	ErrUnknownOperation = errors.New("unknown operation")
)

// ErrPersistence wraps store write failures. Writes committed before the failure stay
// committed; re-running the reconciliation is safe.
var ErrPersistence = errors.New("persistence error")

// IsCallerError reports whether err is caused by bad input rather than the store.
func IsCallerError(err error) bool {
	for _, target := range []error{
		ErrInvalidFilter, ErrUnknownPartner, ErrNotFound, ErrMissingField,
		ErrInvalidField, ErrUnknownField, ErrReadOnlyField, ErrUnknownOperation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
