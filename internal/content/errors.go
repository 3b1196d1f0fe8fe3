package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrArticleNotFound is returned by GetArticle for an unknown id.
var ErrArticleNotFound = errors.New("article not found")

// ConfigError reports missing connection parameters for the content source.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return "content source not configured: missing " + strings.Join(e.Missing, ", ")
}

// FetchError wraps a transport or remote failure of the content source.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
