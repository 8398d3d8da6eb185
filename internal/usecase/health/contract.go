package health

import "context"

// BackendPinger checks search backend availability.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether an index exists.
type IndexChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}
