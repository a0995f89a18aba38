package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return raw
}

func runMiddleware(mw echo.MiddlewareFunc, authHeader string) (echo.Context, *httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	err := mw(next)(c)
	return c, rec, err
}

func TestJWTAuth_ValidToken(t *testing.T) {
	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user_abc",
		"role":  "admin",
		"email": "admin@example.com",
		"name":  "Admin",
	})

	c, rec, err := runMiddleware(JWTAuth(testSecret), "Bearer "+raw)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_abc", c.Get("user_id"))
	assert.Equal(t, "admin", c.Get("role"))
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	_, rec, err := runMiddleware(JWTAuth(testSecret), "")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	raw := signToken(t, "other-secret", jwt.MapClaims{"sub": "user_abc"})
	_, rec, err := runMiddleware(JWTAuth(testSecret), "Bearer "+raw)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTAuth_NoHeaderPassesAsGuest(t *testing.T) {
	c, rec, err := runMiddleware(OptionalJWTAuth(testSecret), "")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get("user_id"))
}

func TestOptionalJWTAuth_ValidTokenAttachesIdentity(t *testing.T) {
	raw := signToken(t, testSecret, jwt.MapClaims{"sub": "user_abc"})
	c, rec, err := runMiddleware(OptionalJWTAuth(testSecret), "Bearer "+raw)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_abc", c.Get("user_id"))
}

func TestOptionalJWTAuth_InvalidTokenRejected(t *testing.T) {
	// A present-but-broken token must not be downgraded to a guest request.
	_, rec, err := runMiddleware(OptionalJWTAuth(testSecret), "Bearer not-a-token")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	run := func(role interface{}) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
		assert.NoError(t, RequireRole("admin")(next)(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run("admin").Code)
	assert.Equal(t, http.StatusForbidden, run("customer").Code)
	assert.Equal(t, http.StatusForbidden, run(nil).Code)
	assert.Equal(t, http.StatusForbidden, run(42).Code)
}
