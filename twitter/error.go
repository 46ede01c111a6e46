package twitter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Error is the typed failure for platform calls. StatusCode zero means the
// request never produced an HTTP response.
type Error struct {
	StatusCode int
	Wrapped    error
	Ratelimit  *RatelimitInfo
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("platform error %d", e.StatusCode)
	}
	if e.StatusCode == http.StatusTooManyRequests && e.Ratelimit != nil && !e.Ratelimit.Reset.IsZero() {
		return fmt.Sprintf("platform error %d: %s (throttled until %s)", e.StatusCode, e.Wrapped, e.Ratelimit.Reset.Local())
	}
	return fmt.Sprintf("platform error %d: %s", e.StatusCode, e.Wrapped)
}

func (e *Error) Unwrap() error {
	if e.Wrapped == nil {
		return nil
	}
	return e.Wrapped
}

func (e *Error) IsThrottled() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *Error) IsAuthFailed() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

type RatelimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// apiError is the v2 problem document. Some endpoints return a top-level
// title/detail pair, others a list under "errors"; both appear in the wild.
type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (ae *apiError) Error() string {
	if ae.Title != "" || ae.Detail != "" {
		return fmt.Sprintf("%s: %s", ae.Title, ae.Detail)
	}
	if len(ae.Errors) > 0 {
		return ae.Errors[0].Message
	}
	return "unknown platform error"
}

func (ae *apiError) empty() bool {
	return ae.Title == "" && ae.Detail == "" && len(ae.Errors) == 0
}

func errorFromHTTPResponse(resp *http.Response, err error) error {
	r := &Error{
		StatusCode: resp.StatusCode,
		Wrapped:    err,
	}
	if resp.Header.Get("x-rate-limit-limit") != "" {
		r.Ratelimit = &RatelimitInfo{}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-reset"), 10, 64); err == nil {
			r.Ratelimit.Reset = time.Unix(n, 0)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-limit"), 10, 64); err == nil {
			r.Ratelimit.Limit = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-remaining"), 10, 64); err == nil {
			r.Ratelimit.Remaining = int(n)
		}
	}
	return r
}
