package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runAuthed(t *testing.T, authHeader string) (*httptest.ResponseRecorder, *Principal) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var principal *Principal
	handler := Auth(testSecret)(func(c echo.Context) error {
		principal = PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, principal
}

func TestAuthValidToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "uid-1", "email": "user@example.com"})

	rec, principal := runAuthed(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, principal)
	assert.Equal(t, "uid-1", principal.UID)
	assert.Equal(t, "user@example.com", principal.Email)
}

func TestAuthMissingHeader(t *testing.T) {
	rec, principal := runAuthed(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, principal)
}

func TestAuthWrongScheme(t *testing.T) {
	rec, _ := runAuthed(t, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthBadSignature(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "uid-1"})

	rec, _ := runAuthed(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
