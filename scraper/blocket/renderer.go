package blocket

import (
	"context"
	"time"
)

// Launcher starts a browser process for one run.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is one running browser shared by every page fetch of a run.
type Browser interface {
	// NewPage opens an isolated tab. Callers must Close it.
	NewPage() (Page, error)
	Close()
}

// Page renders a single URL.
type Page interface {
	Navigate(url string) error
	// WaitForSelector reports false with a nil error when the selector did
	// not appear within timeout.
	WaitForSelector(selector string, timeout time.Duration) (bool, error)
	// Content returns the rendered HTML of the document.
	Content() (string, error)
	CountMatches(selector string) (int, error)
	Close()
}
