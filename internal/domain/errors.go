package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogUnavailable means the application's test registry could not be read
	ErrCatalogUnavailable = errors.New("test catalog unavailable")
	// ErrNetworkUnavailable means the target application did not answer
	ErrNetworkUnavailable = errors.New("target application unreachable")
	// ErrBridgeDeserialization means a callback payload could not be decoded
	ErrBridgeDeserialization = errors.New("callback payload could not be processed")
	// ErrTimedOut means the run did not finish within the configured window
	ErrTimedOut = errors.New("test run timed out")
	// ErrLaunchFailure means the browser process could not start
	ErrLaunchFailure = errors.New("browser launch failed")
)

// Remediation returns a hint the user can act on, or "" if none applies
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrNetworkUnavailable):
		return "Start the application's test server (for example `ember serve`) and check the configured host and port."
	case errors.Is(err, ErrLaunchFailure):
		return "Set QTE_BROWSER_PATH to a Chrome or Chromium executable."
	case errors.Is(err, ErrTimedOut):
		return "Increase the run timeout with --timeout or QTE_TIMEOUT."
	}
	return ""
}

// UserMessage formats err together with its remediation hint
func UserMessage(err error) string {
	if hint := Remediation(err); hint != "" {
		return fmt.Sprintf("%v\n%s", err, hint)
	}
	return err.Error()
}
