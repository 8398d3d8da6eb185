package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrIndexNotFound signals a missing search index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexExists signals a duplicate search index.
	ErrIndexExists = errors.New("index already exists")
	// ErrInvalidInput signals a request that cannot be executed as given.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotSupported signals an operation the configured backend lacks.
	ErrNotSupported = errors.New("not supported by backend")
	// ErrLoaderClosed signals use of a bulk loader after Close.
	ErrLoaderClosed = errors.New("bulk loader closed")
)
