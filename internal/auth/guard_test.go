package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-authgate/basicgate/internal/core"
	"github.com/go-authgate/basicgate/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	challengeHeader = `Basic realm="del.icio.us API"`
	challengeBody   = "Use of the API calls requires authentication."
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/posts/update", nil)
	require.NoError(t, err)
	return req
}

// serve puts g in front of a handler and reports whether the handler ran.
func serve(t *testing.T, g *Guard, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	w := httptest.NewRecorder()
	if !g.Authorize(req).Allowed() {
		g.Challenge(w)
		return w, false
	}
	w.WriteHeader(http.StatusOK)
	return w, true
}

func assertChallenge(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, challengeHeader, w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, challengeBody, w.Body.String())
}

func TestGuard_NoHeader(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl) // no calls expected

	g := NewGuard(dir)
	w, reached := serve(t, g, newRequest(t))

	assertChallenge(t, w)
	assert.False(t, reached)
}

func TestGuard_EmptyUsernameSkipsDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl)

	req := newRequest(t)
	req.SetBasicAuth("", "secret")

	out := NewGuard(dir).Authorize(req)
	assert.Equal(t, Reject, out.Decision)
	assert.Equal(t, ReasonEmptyUsername, out.Reason)
	assert.Nil(t, out.Identity)
}

func TestGuard_MalformedHeaderTreatedAsMissing(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "bad base64", header: "Basic !!!not-base64!!!"},
		{name: "no colon", header: "Basic Ym9i"}, // "bob"
		{name: "bearer scheme", header: "Bearer abc.def.ghi"},
		{name: "scheme only", header: "Basic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dir := mocks.NewMockUserDirectory(ctrl)

			req := newRequest(t)
			req.Header.Set("Authorization", tt.header)

			g := NewGuard(dir)
			out := g.Authorize(req)
			assert.Equal(t, ReasonMissing, out.Reason)

			w, reached := serve(t, g, req)
			assertChallenge(t, w)
			assert.False(t, reached)
		})
	}
}

func TestGuard_DirectoryRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl)
	dir.EXPECT().
		Login(gomock.Any(), "bob", "wrong").
		Return(&core.LoginResult{Success: false}, nil).
		Times(1)

	req := newRequest(t)
	req.SetBasicAuth("bob", "wrong")

	w, reached := serve(t, NewGuard(dir), req)

	assertChallenge(t, w)
	assert.False(t, reached)
}

func TestGuard_DirectoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		result *core.LoginResult
		err    error
		reason Reason
	}{
		{name: "invalid credentials", err: ErrInvalidCredentials, reason: ReasonInvalid},
		{name: "wrapped invalid credentials", err: errors.Join(ErrInvalidCredentials, errors.New("x")), reason: ReasonInvalid},
		{name: "backend failure", err: errors.New("connection refused"), reason: ReasonDirectoryError},
		{name: "nil result", result: nil, reason: ReasonInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dir := mocks.NewMockUserDirectory(ctrl)
			dir.EXPECT().Login(gomock.Any(), "bob", "pw").Return(tt.result, tt.err).Times(1)

			req := newRequest(t)
			req.SetBasicAuth("bob", "pw")

			out := NewGuard(dir).Authorize(req)
			assert.Equal(t, Reject, out.Decision)
			assert.Equal(t, tt.reason, out.Reason)
			assert.Equal(t, "bob", out.Username)
		})
	}
}

func TestGuard_DirectoryAccepts(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl)
	identity := &core.LoginResult{Success: true, UserID: "u-1", Username: "bob"}
	dir.EXPECT().Login(gomock.Any(), "bob", "right").Return(identity, nil).Times(1)

	req := newRequest(t)
	req.SetBasicAuth("bob", "right")

	out := NewGuard(dir).Authorize(req)
	assert.Equal(t, Allow, out.Decision)
	assert.Equal(t, ReasonAllowed, out.Reason)
	assert.Equal(t, "bob", out.Username)
	assert.Same(t, identity, out.Identity)
}

func TestGuard_PasswordWithColon(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl)
	dir.EXPECT().
		Login(gomock.Any(), "bob", "pa:ss:word").
		Return(&core.LoginResult{Success: true}, nil)

	req := newRequest(t)
	req.SetBasicAuth("bob", "pa:ss:word")

	assert.True(t, NewGuard(dir).Authorize(req).Allowed())
}

func TestGuard_PassesRequestContext(t *testing.T) {
	type ctxKey struct{}
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl)
	dir.EXPECT().
		Login(gomock.Any(), "bob", "right").
		DoAndReturn(func(ctx context.Context, _, _ string) (*core.LoginResult, error) {
			assert.Equal(t, "trace-1", ctx.Value(ctxKey{}))
			return &core.LoginResult{Success: true}, nil
		})

	req := newRequest(t)
	req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, "trace-1"))
	req.SetBasicAuth("bob", "right")

	assert.True(t, NewGuard(dir).Authorize(req).Allowed())
}

func TestGuard_CustomRealmAndMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	g := NewGuard(
		mocks.NewMockUserDirectory(ctrl),
		WithRealm("Bookmarks"),
		WithChallengeMessage("Login required."),
		WithRealm(""), // ignored
	)

	w, _ := serve(t, g, newRequest(t))

	assert.Equal(t, `Basic realm="Bookmarks"`, w.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Login required.", w.Body.String())
}

func TestGuard_RecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mocks.NewMockUserDirectory(ctrl)
	rec := mocks.NewMockRecorder(ctrl)

	dir.EXPECT().Login(gomock.Any(), "bob", "right").Return(&core.LoginResult{Success: true}, nil)
	gomock.InOrder(
		rec.EXPECT().RecordGuardDecision(string(ReasonMissing)),
		rec.EXPECT().RecordAuthAttempt("basic", false, gomock.Any()),
		rec.EXPECT().RecordGuardDecision(string(ReasonAllowed)),
		rec.EXPECT().RecordAuthAttempt("basic", true, gomock.Any()),
	)

	g := NewGuard(dir, WithRecorder(rec))

	g.Authorize(newRequest(t))

	req := newRequest(t)
	req.SetBasicAuth("bob", "right")
	g.Authorize(req)
}

func TestNewGuard_NilDirectoryPanics(t *testing.T) {
	assert.Panics(t, func() { NewGuard(nil) })
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "reject", Reject.String())
}
