package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/listing"
)

// errorText turns an error into the one line shown in the status bar.
func errorText(err error) string {
	var (
		fe *listing.FetchError
		pe *listing.PersistError
		se *api.StatusError
	)
	switch {
	case errors.As(err, &pe) && pe.Read:
		return fmt.Sprintf("Could not mark article as read: %v", pe.Err)
	case errors.As(err, &pe):
		return fmt.Sprintf("Could not mark article as unread: %v", pe.Err)
	case errors.As(err, &fe):
		return fmt.Sprintf("Could not load articles: %v", fe.Err)
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	default:
		return err.Error()
	}
}

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
