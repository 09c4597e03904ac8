package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken(42, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := VerifyToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(42, testSecret)
	require.NoError(t, err)

	_, err = VerifyToken(token, "other-secret")
	assert.Error(t, err)
}

func TestVerifyTokenMalformed(t *testing.T) {
	_, err := VerifyToken("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestVerifyTokenExpired(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(jwt.TimeFunc().Add(-TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = VerifyToken(token, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func newExtractContext(t *testing.T, header string, cookie *http.Cookie) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestExtractTokenFromHeader(t *testing.T) {
	c := newExtractContext(t, "Bearer abc123", nil)
	token, code, _ := ExtractToken(c)
	assert.Empty(t, code)
	assert.Equal(t, "abc123", token)
}

func TestExtractTokenCookieFallback(t *testing.T) {
	c := newExtractContext(t, "", &http.Cookie{Name: CookieName, Value: "cookie-token"})
	token, code, _ := ExtractToken(c)
	assert.Empty(t, code)
	assert.Equal(t, "cookie-token", token)
}

func TestExtractTokenFailureCodes(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie *http.Cookie
		code   string
	}{
		{"no header no cookie", "", nil, "NO_AUTH_HEADER"},
		{"empty cookie", "", &http.Cookie{Name: CookieName, Value: ""}, "NO_AUTH_HEADER"},
		{"wrong scheme", "Token abc", nil, "INVALID_AUTH_FORMAT"},
		{"bearer without token", "Bearer ", nil, "EMPTY_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newExtractContext(t, tc.header, tc.cookie)
			token, code, message := ExtractToken(c)
			assert.Empty(t, token)
			assert.Equal(t, tc.code, code)
			assert.NotEmpty(t, message)
		})
	}
}
