package registry

import "errors"

// Failure kinds surfaced by registry operations. Callers match them with errors.Is;
// returned errors wrap them with the caller and operation context.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInstituteNotFound   = errors.New("institute not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrTupleSizeExceeded   = errors.New("tuple size exceeded")

	ErrNotInitialized     = errors.New("registry not initialized")
	ErrAlreadyInitialized = errors.New("registry already initialized")
	ErrInvalidArgument    = errors.New("invalid argument")
)
