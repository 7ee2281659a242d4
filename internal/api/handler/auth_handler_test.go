package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/devtracker/accounts-api/internal/api/middleware"
	"github.com/devtracker/accounts-api/internal/core/domain"
	"github.com/devtracker/accounts-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, name, email, password string) (*domain.User, error)
	loginFn        func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	authenticateFn func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	return s.authenticateFn(ctx, token)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			if name != "Alice" || email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s %s", name, email, password)
			}
			return &domain.User{ID: "u1", Name: name, Email: email, PasswordHash: "h", Role: domain.RoleUser, IsActive: true}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/users/", `{"name":"Alice","email":"alice@example.com","password":"secret"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "u1" || resp["role"] != "user" || resp["is_active"] != true {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/users/", `{"name":"Bob","email":"bob@example.com","password":"x"}`), httptest.NewRecorder())

	if err := handler.Register(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, name, email, password string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/users/", `{"email":"bob@example.com","password":"x"}`), httptest.NewRecorder())
	err := handler.Register(c)
	if !errors.Is(err, domain.ErrEmptyField) {
		t.Fatalf("expected EmptyField validation error, got %v", err)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/users/", `{"name":"Bob","email":"not-an-email","password":"x"}`), httptest.NewRecorder())
	err = handler.Register(c)
	de, ok := domain.AsError(err)
	if !ok || de.Kind != domain.KindValidation || de.Reason != domain.ReasonInvalidInput {
		t.Fatalf("expected InvalidInput validation error, got %v", err)
	}
	if !strings.Contains(de.Message, "email") {
		t.Fatalf("message should name the field: %q", de.Message)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/users/", "not-json"), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := handler.Register(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Form(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{AccessToken: "token123", TokenType: "bearer"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	form := url.Values{"username": {"alice@example.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "token123" || resp["token_type"] != "bearer" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_JSON(t *testing.T) {
	e := newTestEcho()
	called := false
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			called = true
			return &ports.LoginResult{AccessToken: "t", TokenType: "bearer"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"alice@example.com","password":"secret"}`), httptest.NewRecorder())
	if err := handler.Login(c); err != nil || !called {
		t.Fatalf("json login failed: called=%v err=%v", called, err)
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	for _, want := range []error{domain.ErrUnknownEmail, domain.ErrWrongPassword} {
		e := newTestEcho()
		stub := &stubAuthService{
			loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
				return nil, want
			},
		}
		handler := NewAuthHandler(stub)

		c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"a@example.com","password":"bad"}`), httptest.NewRecorder())
		if err := handler.Login(c); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"a@example.com"}`), httptest.NewRecorder())
	if err := handler.Login(c); !errors.Is(err, domain.ErrEmptyField) {
		t.Fatalf("expected EmptyField, got %v", err)
	}
}

func TestAuthHandler_Protected(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/protected-route", nil), rec)
	c.Set(middleware.ActorKey, &domain.User{ID: "a", Name: "Alice"})

	if err := handler.Protected(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Bem-vindo, Alice!") {
		t.Fatalf("unexpected greeting: %s", rec.Body.String())
	}
}

func TestAuthHandler_Protected_NoActor(t *testing.T) {
	e := newTestEcho()
	handler := NewAuthHandler(&stubAuthService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/protected-route", nil), httptest.NewRecorder())
	if err := handler.Protected(c); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestRoot(t *testing.T) {
	e := newTestEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := Root(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"message":"API funcionando!"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
