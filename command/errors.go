package command

import "fmt"

// wireError is the taxonomy of failures the protocol can report back to a
// client, each with its own response-line rendering.
type wireError struct {
	kind   string
	reason string
}

func (e *wireError) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("%s: %s", e.kind, e.reason)
	}
	return e.kind
}

// render produces the exact wire text for this error, with no outer framing
// applied — the caller hex-encodes the whole response line.
func (e *wireError) render() string {
	switch e.kind {
	case "IncorrectRequest":
		return "Err;IncorrectRequest"
	case "UnexpectedReason":
		return "Err;UnexpectedReason"
	case "IncorrectLogin":
		return "IncLogin;Null"
	case "SessionDoesntExists":
		return "Err;SessionDoesntExists"
	case "SessionCouldntBeExtended":
		return "Err;SessionCouldntBeExtended"
	case "CouldntPerformQuery":
		return "Err;" + e.reason
	default:
		return "Err;UnexpectedReason"
	}
}

func errIncorrectRequest() *wireError { return &wireError{kind: "IncorrectRequest"} }
func errUnexpectedReason() *wireError { return &wireError{kind: "UnexpectedReason"} }
func errIncorrectLogin() *wireError   { return &wireError{kind: "IncorrectLogin"} }
func errSessionMissing() *wireError   { return &wireError{kind: "SessionDoesntExists"} }
func errSessionExpired() *wireError   { return &wireError{kind: "SessionCouldntBeExtended"} }
func errQueryFailed(reason string) *wireError {
	return &wireError{kind: "CouldntPerformQuery", reason: reason}
}
