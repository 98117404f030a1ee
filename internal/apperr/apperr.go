// Package apperr defines the closed error taxonomy surfaced to the user
// (spec §7). Every error that reaches the reducer as a transient banner is,
// or wraps, one of these kinds.
package apperr

import "fmt"

// Kind is the closed set of user-visible error categories.
type Kind int

const (
	Other Kind = iota
	ConfigCorrupt
	PersistenceError
	ProfileMissingCredentials
	SetupScriptFailed
	RoleAssumptionFailed
	NotFound
	AccessDenied
	WrongRegion
	NetworkError
	Canceled
	CredentialExpired
)

// Error is a taxonomy-tagged error. The reducer never needs to unwrap past
// Kind to decide how to render a banner.
type Error struct {
	Kind Kind
	// Fields carried by specific kinds, used for message formatting.
	ExitCode  int
	Step      int
	Total     int
	Arn       string
	cause     error
	msg       string
}

func (e *Error) Error() string {
	switch e.Kind {
	case SetupScriptFailed:
		return fmt.Sprintf("setup script failed (exit %d)", e.ExitCode)
	case RoleAssumptionFailed:
		return fmt.Sprintf("failed to assume role %s (step %d of %d): %s", e.Arn, e.Step, e.Total, causeText(e.cause))
	case NotFound:
		return withMsg("not found", e.msg)
	case AccessDenied:
		return withMsg("access denied", e.msg)
	case WrongRegion:
		return withMsg("wrong region", e.msg)
	case NetworkError:
		return withMsg("network error", e.msg)
	case Canceled:
		return "canceled"
	case CredentialExpired:
		return withMsg("credentials expired", e.msg)
	case ConfigCorrupt:
		return withMsg("config file is corrupt", e.msg)
	case PersistenceError:
		return withMsg("failed to save config", e.msg)
	case ProfileMissingCredentials:
		return withMsg("profile has no entry in the credentials file", e.msg)
	default:
		if e.msg != "" {
			return e.msg
		}
		return causeText(e.cause)
	}
}

func (e *Error) Unwrap() error { return e.cause }

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func withMsg(base, extra string) string {
	if extra == "" {
		return base
	}
	return base + ": " + extra
}

func New(k Kind, msg string) *Error { return &Error{Kind: k, msg: msg} }

func Wrap(k Kind, cause error) *Error { return &Error{Kind: k, cause: cause} }

func WrapMsg(k Kind, msg string, cause error) *Error { return &Error{Kind: k, msg: msg, cause: cause} }

func SetupFailed(exitCode int) *Error {
	return &Error{Kind: SetupScriptFailed, ExitCode: exitCode}
}

func RoleFailed(step, total int, arn string, cause error) *Error {
	return &Error{Kind: RoleAssumptionFailed, Step: step, Total: total, Arn: arn, cause: cause}
}

// Is reports whether err carries the given Kind, matching through Unwrap.
func Is(err error, k Kind) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			if ae.Kind == k {
				return true
			}
			err = ae.cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
