package smartsearch

import "github.com/kailas-cloud/smartsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrIndexNotFound = domain.ErrIndexNotFound
	ErrIndexExists   = domain.ErrIndexExists
	ErrInvalidInput  = domain.ErrInvalidInput
	ErrNotSupported  = domain.ErrNotSupported
	ErrLoaderClosed  = domain.ErrLoaderClosed
)
