package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/devtracker/accounts-api/internal/core/domain"
)

type stubAuthenticator struct {
	users map[string]*domain.User // by token
	err   error
	seen  string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	s.seen = token
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return u, nil
}

func runAuth(t *testing.T, authn Authenticator, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Auth(authn)(next)(c)
	return rec, err
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	alice := &domain.User{ID: "a", Email: "alice@example.com", Role: domain.RoleUser}
	authn := &stubAuthenticator{users: map[string]*domain.User{"tok": alice}}

	called := false
	rec, err := runAuth(t, authn, "Bearer tok", func(c echo.Context) error {
		called = true
		if Actor(c) != alice {
			t.Fatalf("actor not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_SchemeCaseInsensitive(t *testing.T) {
	authn := &stubAuthenticator{users: map[string]*domain.User{"tok": {ID: "a"}}}

	_, err := runAuth(t, authn, "bearer tok", func(c echo.Context) error { return nil })
	if err != nil {
		t.Fatalf("expected lowercase scheme to pass, got %v", err)
	}
	if authn.seen != "tok" {
		t.Fatalf("token not forwarded, got %q", authn.seen)
	}
}

func TestAuthMiddleware_HeaderProblems(t *testing.T) {
	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Token abc",
		"no token":     "Bearer ",
		"no space":     "Bearerabc",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runAuth(t, &stubAuthenticator{}, header, func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 HTTPError, got %v", err)
			}
		})
	}
}

func TestAuthMiddleware_AuthenticatorError(t *testing.T) {
	authn := &stubAuthenticator{err: domain.ErrUnknownSubject}

	_, err := runAuth(t, authn, "Bearer tok", func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})
	if !errors.Is(err, domain.ErrUnknownSubject) {
		t.Fatalf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestAuthMiddleware_SetsChallengeHeader(t *testing.T) {
	rec, _ := runAuth(t, &stubAuthenticator{}, "", func(c echo.Context) error { return nil })
	if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate Bearer, got %q", got)
	}
}

func TestActor_Absent(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if Actor(c) != nil {
		t.Fatalf("expected nil actor")
	}
}
