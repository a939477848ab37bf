package auth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-authgate/basicgate/internal/config"
	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/metrics"
)

// Decision is the guard verdict for a single request.
type Decision int

const (
	Reject Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "reject"
}

// Reason explains a Decision. It is never shown to the client: every
// rejection produces the same challenge.
type Reason string

const (
	ReasonAllowed        Reason = "allowed"
	ReasonMissing        Reason = "missing"
	ReasonEmptyUsername  Reason = "empty_username"
	ReasonInvalid        Reason = "invalid"
	ReasonDirectoryError Reason = "directory_error"
)

// Outcome is the result of Guard.Authorize.
type Outcome struct {
	Decision Decision
	Reason   Reason
	Username string
	Identity *core.LoginResult // set only when Decision == Allow
}

// Allowed reports whether the request may proceed.
func (o Outcome) Allowed() bool {
	return o.Decision == Allow
}

// Guard gates requests on HTTP Basic credentials checked by a UserDirectory.
// It keeps no per-request state and is safe for concurrent use.
type Guard struct {
	directory core.UserDirectory
	realm     string
	message   string
	metrics   core.Recorder
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithRealm sets the protection space advertised in the challenge.
func WithRealm(realm string) GuardOption {
	return func(g *Guard) {
		if realm != "" {
			g.realm = realm
		}
	}
}

// WithChallengeMessage sets the plain-text body of a 401 response.
func WithChallengeMessage(msg string) GuardOption {
	return func(g *Guard) {
		if msg != "" {
			g.message = msg
		}
	}
}

// WithRecorder enables metrics for guard decisions.
func WithRecorder(r core.Recorder) GuardOption {
	return func(g *Guard) {
		if r != nil {
			g.metrics = r
		}
	}
}

// NewGuard returns a guard backed by directory. It panics if directory is nil.
func NewGuard(directory core.UserDirectory, opts ...GuardOption) *Guard {
	if directory == nil {
		panic("auth: NewGuard requires a user directory")
	}

	g := &Guard{
		directory: directory,
		realm:     config.DefaultRealm,
		message:   config.DefaultChallengeMessage,
		metrics:   metrics.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize evaluates the request's Basic credentials. The directory is
// consulted at most once, and never when the username is absent or empty.
// An unparseable Authorization header counts as absent.
func (g *Guard) Authorize(r *http.Request) Outcome {
	start := time.Now()
	out := g.authorize(r)

	g.metrics.RecordGuardDecision(string(out.Reason))
	g.metrics.RecordAuthAttempt("basic", out.Allowed(), time.Since(start))

	if out.Reason == ReasonInvalid {
		log.Printf("[Auth] Rejected credentials user=%q path=%s", out.Username, r.URL.Path)
	}
	return out
}

func (g *Guard) authorize(r *http.Request) Outcome {
	username, password, ok := r.BasicAuth()
	if !ok {
		return Outcome{Decision: Reject, Reason: ReasonMissing}
	}
	if username == "" {
		return Outcome{Decision: Reject, Reason: ReasonEmptyUsername}
	}

	result, err := g.directory.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return Outcome{Decision: Reject, Reason: ReasonInvalid, Username: username}
		}
		log.Printf("[Auth] Directory error user=%q: %v", username, err)
		return Outcome{Decision: Reject, Reason: ReasonDirectoryError, Username: username}
	}
	if result == nil || !result.Success {
		return Outcome{Decision: Reject, Reason: ReasonInvalid, Username: username}
	}

	return Outcome{
		Decision: Allow,
		Reason:   ReasonAllowed,
		Username: username,
		Identity: result,
	}
}

// Challenge writes the 401 response. Nothing else may be written afterwards.
func (g *Guard) Challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+g.realm+`"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(g.message))
}
