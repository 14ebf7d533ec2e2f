package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies why a fetch failed. Every kind means "skip this
// URL"; none is fatal to a crawl.
type ErrorKind string

const (
	// KindUnreachable covers transport failures: refused connections,
	// DNS errors, TLS errors and timeouts.
	KindUnreachable ErrorKind = "unreachable"
	// KindStatus is an HTTP response with status >= 400.
	KindStatus ErrorKind = "status"
	// KindBody is a failure reading or decoding the response body,
	// including bodies over the size cap.
	KindBody ErrorKind = "body"
)

// FetchError is returned by every Fetcher for a failed URL.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the kind of a FetchError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsUnreachable reports whether err is a transport-level fetch failure.
func IsUnreachable(err error) bool {
	return KindOf(err) == KindUnreachable
}

func unreachable(rawURL string, err error) *FetchError {
	return &FetchError{Kind: KindUnreachable, URL: rawURL, Err: err}
}

// isTimeout reports whether err came from a deadline, either the
// client's own timeout or the caller's context.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
