package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the kind of pipeline failure.
//
// Missing listing fields and duplicate urls have no type: the extractor
// defaults the field and the sink counts the listing as skipped.
type ErrorType string

const (
	// ErrorTypePagination means no page numbers could be discovered on the index page
	ErrorTypePagination ErrorType = "pagination"
	// ErrorTypeFetchTimeout means the content selector never appeared after all retries
	ErrorTypeFetchTimeout ErrorType = "fetch_timeout"
	// ErrorTypeFetch represents unexpected navigation or runtime errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeStorage represents file or database failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// FailureReasonPaginationFailed is printed when a run aborts at discovery.
const FailureReasonPaginationFailed = "PAGINATION_FAILED"

// ScrapeError represents a failure in one stage of the pipeline
type ScrapeError struct {
	Type    ErrorType
	Page    int
	URL     string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	where := e.URL
	if e.Page > 0 {
		where = fmt.Sprintf("page %d", e.Page)
	}
	if where == "" {
		where = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, where, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, where, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Reason returns the failure reason shown to the operator.
func (e *ScrapeError) Reason() string {
	if e.Type == ErrorTypePagination {
		return FailureReasonPaginationFailed
	}
	return string(e.Type)
}

// New creates a new ScrapeError
func New(errType ErrorType, page int, url, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Page:    page,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewPagination creates a pagination discovery error
func NewPagination(indexURL, message string, err error) *ScrapeError {
	return New(ErrorTypePagination, 0, indexURL, message, err)
}

// NewFetchTimeout creates a content-wait timeout error
func NewFetchTimeout(page int, url string) *ScrapeError {
	return New(ErrorTypeFetchTimeout, page, url, "content selector did not appear", nil)
}

// NewFetch creates a page fetch error
func NewFetch(page int, url, message string, err error) *ScrapeError {
	return New(ErrorTypeFetch, page, url, message, err)
}

// NewStorage creates a storage error
func NewStorage(message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, 0, "", message, err)
}

// NewConfiguration creates a configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, 0, "", message, err)
}

// IsType reports whether any error in err's chain is a ScrapeError of type t.
func IsType(err error, t ErrorType) bool {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type == t
	}
	return false
}
