package listing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by operations that need a loaded list.
	ErrNotLoaded = errors.New("articles not loaded yet")
	// ErrUnknownArticle is returned when an id is not in the loaded list.
	ErrUnknownArticle = errors.New("unknown article")
)

// FetchError reports a failed or malformed load.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError reports that a read-state write-back failed. Read is the
// state that was being written.
type PersistError struct {
	ArticleID int64
	Read      bool
	Err       error
}

func (e *PersistError) Error() string {
	state := "read"
	if !e.Read {
		state = "unread"
	}
	return fmt.Sprintf("marking article %d as %s: %v", e.ArticleID, state, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
