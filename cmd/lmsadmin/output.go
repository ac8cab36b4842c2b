package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/muurk/lmsadmin/internal/apiclient"
	"github.com/muurk/lmsadmin/internal/config"
)

var errNotLoggedIn = errors.New("not logged in: run 'lmsadmin login' first")

func validateFormat(format string) error {
	for _, f := range config.OutputFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be one of %s", format, strings.Join(config.OutputFormats, ", "))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// requireSession fails fast when no session is stored, so commands don't
// send an anonymous request just to get a 401.
func requireSession() error {
	if !store.Get().Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

// currentUser is the display name shown in TUI headers.
func currentUser() string {
	s := store.Get()
	if s.User == nil {
		return ""
	}
	return s.User.DisplayName()
}

// isInteractive reports whether stdin and stdout are both terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// hintedError decorates backend errors with the client's troubleshooting
// hint for display.
type hintedError struct {
	err error
}

func (e hintedError) Error() string {
	msg := apiclient.GetShortErrorMessage(e.err)
	if hint := apiclient.GetTroubleshootingHint(e.err); hint != "" {
		msg += "\n\n" + hint
	}
	return msg
}

func (e hintedError) Unwrap() error {
	return e.err
}

// withHint wraps backend errors in a hintedError. Other errors, and nil,
// pass through.
func withHint(err error) error {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return hintedError{err: err}
}
