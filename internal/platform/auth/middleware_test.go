package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString(testKey)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, echo.Context, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var captured echo.Context
	err := mw(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, captured, err
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "agent-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		OrgSlug: "sunrise",
		Roles:   []string{"agent"},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, captured, err := runMiddleware(mw, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := captured.Request().Context()
	if UserIDFromContext(ctx) != "agent-1" {
		t.Errorf("wrong subject: %s", UserIDFromContext(ctx))
	}
	if OrgSlugFromContext(ctx) != "sunrise" {
		t.Errorf("wrong org slug: %s", OrgSlugFromContext(ctx))
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != "agent" {
		t.Errorf("wrong roles: %v", roles)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, _, err := runMiddleware(mw, req)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, _, err := runMiddleware(mw, req)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{})
	s, err := tok.SignedString([]byte("other-key"))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+s)
	_, _, mwErr := runMiddleware(mw, req)
	he, ok := mwErr.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", mwErr)
	}
}

func TestDevAuthMiddleware_Defaults(t *testing.T) {
	mw := DevAuthMiddleware("sunrise")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, captured, err := runMiddleware(mw, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := captured.Request().Context()
	if OrgSlugFromContext(ctx) != "sunrise" {
		t.Errorf("wrong org slug: %s", OrgSlugFromContext(ctx))
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("wrong roles: %v", roles)
	}
}
