package core

import "fmt"

// ValidateForIndexing checks that a document is fit to be sent to the
// external store.
//
// Validation rules:
//   - ID must not be empty
//   - Vector must be set and have exactly dim elements
//
// NOT validated:
//   - Text fields (the store accepts empty analyzed fields)
//   - Categories (filtering happens at normalization time)
func (d *Document) ValidateForIndexing(dim int) error {
	if d == nil {
		return fmt.Errorf("%w: document is nil", ErrMalformedRecord)
	}

	if d.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedRecord)
	}

	if len(d.Vector) == 0 {
		return fmt.Errorf("%w: id %s", ErrMissingVector, d.ID)
	}

	if len(d.Vector) != dim {
		return fmt.Errorf("%w: id %s has %d dimensions, configured %d",
			ErrDimensionMismatch, d.ID, len(d.Vector), dim)
	}

	return nil
}
