package davclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind tags every error the client reports about the server or its
// own configuration. Callers can switch over it exhaustively.
type ErrorKind int

const (
	// KindUnknown is reported by KindOf for errors that are not *Error,
	// such as transport failures.
	KindUnknown ErrorKind = iota
	// KindAuthentication means the server rejected the credentials (401)
	KindAuthentication
	// KindDuplicate means a resource with the generated UID already exists
	KindDuplicate
	// KindAPI means the server failed (5xx) or answered a mutation unexpectedly
	KindAPI
	// KindNotExist means the resource is absent (404, 410 or an unparsable body)
	KindNotExist
	// KindConfig means invalid construction input or arguments
	KindConfig
	// KindPartialUpdate means a delete-then-create update deleted the old
	// resource but failed to store the new one
	KindPartialUpdate
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindDuplicate:
		return "duplicate"
	case KindAPI:
		return "api"
	case KindNotExist:
		return "not exist"
	case KindConfig:
		return "config"
	case KindPartialUpdate:
		return "partial update"
	default:
		return "unknown"
	}
}

// Error represents a CalDAV client error
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := "caldav: " + e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotExist)
// works regardless of status code or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrDuplicate      = &Error{Kind: KindDuplicate}
	ErrAPI            = &Error{Kind: KindAPI}
	ErrNotExist       = &Error{Kind: KindNotExist}
	ErrConfig         = &Error{Kind: KindConfig}
	ErrPartialUpdate  = &Error{Kind: KindPartialUpdate}
)

// KindOf returns the kind of the outermost *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Classify maps a response status code to an error. The first matching rule
// wins; any status not listed is treated as success and yields nil.
//
//	404, 410 -> KindNotExist
//	401      -> KindAuthentication
//	>= 500   -> KindAPI
func Classify(status int) error {
	switch {
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotExist, StatusCode: status}
	case status == http.StatusGone:
		return &Error{Kind: KindNotExist, StatusCode: status}
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindAuthentication, StatusCode: status}
	case status >= http.StatusInternalServerError:
		return &Error{Kind: KindAPI, StatusCode: status}
	}
	return nil
}

func configErrorf(format string, args ...any) error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}
