package gateway

import (
	"errors"
	"net/http"

	"certregistry/registry"
)

// errMissingIdentity is returned when the caller identity header is absent.
var errMissingIdentity = errors.New("caller identity header is missing")

// Error kinds reported in the "error" field of failed responses and as metric outcomes.
const (
	kindUnauthenticated     = "unauthenticated"
	kindUnauthorized        = "unauthorized"
	kindInstituteNotFound   = "institute_not_found"
	kindCertificateNotFound = "certificate_not_found"
	kindTupleSizeExceeded   = "tuple_size_exceeded"
	kindInvalidArgument     = "invalid_argument"
	kindAlreadyInitialized  = "already_initialized"
	kindNotInitialized      = "not_initialized"
	kindInternal            = "internal_error"
)

var errorKinds = []struct {
	target error
	kind   string
	status int
}{
	{errMissingIdentity, kindUnauthenticated, http.StatusUnauthorized},
	{registry.ErrUnauthorized, kindUnauthorized, http.StatusForbidden},
	{registry.ErrInstituteNotFound, kindInstituteNotFound, http.StatusNotFound},
	{registry.ErrCertificateNotFound, kindCertificateNotFound, http.StatusNotFound},
	{registry.ErrTupleSizeExceeded, kindTupleSizeExceeded, http.StatusBadRequest},
	{registry.ErrInvalidArgument, kindInvalidArgument, http.StatusBadRequest},
	{registry.ErrAlreadyInitialized, kindAlreadyInitialized, http.StatusConflict},
	{registry.ErrNotInitialized, kindNotInitialized, http.StatusPreconditionFailed},
}

// classify maps err to its error kind and HTTP status.
func classify(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind, k.status
		}
	}
	return kindInternal, http.StatusInternalServerError
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError renders err as a JSON error body. Internal errors keep their message out of the response.
func writeError(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	resp := errorResponse{Error: kind}
	if status != http.StatusInternalServerError {
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}
