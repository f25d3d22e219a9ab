package main

import (
	"errors"

	"github.com/jessevdk/go-flags"

	"github.com/erazemk/najdeno/internal/service"
)

// userError carries the text shown to the user while keeping the cause
// reachable through errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

var displayText = []struct {
	err error
	msg string
}{
	{service.ErrNameRequired, "Name is required."},
	{service.ErrImageRequired, "Please select an image before posting."},
	{service.ErrInvalidCategory, "Category is not valid."},
	{service.ErrInvalidDate, "Date found must be in YYYY-MM-DD format."},
}

// displayError replaces validation errors from the service with the
// messages shown in the app. Other errors pass through unchanged.
func displayError(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range displayText {
		if errors.Is(err, d.err) {
			return &userError{msg: d.msg, err: err}
		}
	}
	return err
}

func runCommand(cmd flags.Commander, args []string) error {
	if cmd == nil {
		return nil
	}
	return displayError(cmd.Execute(args))
}
