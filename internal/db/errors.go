package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrNotSupported  = errors.New("db: operation not supported by backend")
)

// Op constants name the backend command for error context.
const (
	OpPing        = "PING"
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpSugGet      = "FT.SUGGET"
	OpSugAdd      = "FT.SUGADD"
	OpJSONSet     = "JSON.SET"
	OpJSONGet     = "JSON.GET"
	OpScan        = "SCAN"

	OpBleveOpen   = "bleve.open"
	OpBleveBatch  = "bleve.batch"
	OpBleveSearch = "bleve.search"
	OpBleveDict   = "bleve.dict"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
