package catalog

import "errors"

// Sentinel errors returned by API implementations and validation.
var (
	ErrNotFound       = errors.New("catalog: product not found")
	ErrInvalidProduct = errors.New("catalog: invalid product")
	ErrNoID           = errors.New("catalog: server returned a product without id")
	ErrConflict       = errors.New("catalog: product code already exists")
)
