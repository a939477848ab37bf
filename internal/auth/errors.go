package auth

import "errors"

// ErrInvalidCredentials means the directory looked at the credentials and
// refused them. Every other error from a directory means it could not decide.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Failures of the external user directory. Only ErrHTTPAPIAuthFailed is a
// verdict on the credentials; the other two mean the directory is unusable.
var (
	ErrHTTPAPIAuthFailed  = errors.New("user directory rejected credentials")
	ErrHTTPAPIConnection  = errors.New("user directory unreachable")
	ErrHTTPAPIInvalidResp = errors.New("user directory returned an unusable response")
)
