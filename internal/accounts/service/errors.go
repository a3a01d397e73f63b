package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure. Each kind has exactly one catalog entry, and a
// new failure mode gets a new kind rather than borrowing an existing one.
type Kind int

const (
	KindServerError Kind = iota
	KindInvalidRequest
	KindInvalidGrant
	KindInvalidClient
	KindInvalidScope
	KindUnsupportedResponseType
	KindNotFound
	KindCorruptSnapshot
)

// CatalogEntry is what the transport writes for a Kind.
type CatalogEntry struct {
	Status      int
	Code        string
	Description string
}

var catalog = map[Kind]CatalogEntry{
	KindInvalidRequest: {
		Status:      http.StatusBadRequest,
		Code:        "invalid_request",
		Description: "The request is missing a required parameter or is otherwise malformed.",
	},
	KindInvalidGrant: {
		Status:      http.StatusBadRequest,
		Code:        "invalid_grant",
		Description: "The authorization code or client assertion is invalid, expired, or has already been used.",
	},
	KindInvalidClient: {
		Status:      http.StatusUnauthorized,
		Code:        "invalid_client",
		Description: "Client authentication failed.",
	},
	KindInvalidScope: {
		Status:      http.StatusBadRequest,
		Code:        "invalid_scope",
		Description: "The requested scope is invalid or not allowed for this client.",
	},
	KindUnsupportedResponseType: {
		Status:      http.StatusBadRequest,
		Code:        "unsupported_response_type",
		Description: "The response type is not supported.",
	},
	KindNotFound: {
		Status:      http.StatusNotFound,
		Code:        "not_found",
		Description: "The requested resource was not found.",
	},
	KindServerError: {
		Status:      http.StatusInternalServerError,
		Code:        "server_error",
		Description: "The server encountered an unexpected condition.",
	},
	KindCorruptSnapshot: {
		Status:      http.StatusBadRequest,
		Code:        "session_corrupt",
		Description: "The session could not be restored. Start the journey again.",
	},
}

// Kinds lists every kind in the catalog.
func Kinds() []Kind {
	return []Kind{
		KindInvalidRequest,
		KindInvalidGrant,
		KindInvalidClient,
		KindInvalidScope,
		KindUnsupportedResponseType,
		KindNotFound,
		KindServerError,
		KindCorruptSnapshot,
	}
}

// Entry returns the catalog entry for k. Unknown kinds read as server errors.
func (k Kind) Entry() CatalogEntry {
	if e, ok := catalog[k]; ok {
		return e
	}
	return catalog[KindServerError]
}

func (k Kind) String() string { return k.Entry().Code }

// Error carries a Kind and the internal cause. Only the Kind reaches the
// caller; Err is for logs.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf finds the Kind in err's chain. Anything unclassified is a server
// error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerError
}
