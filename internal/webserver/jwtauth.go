package webserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/internal/domain"
)

// TokenTTL is the signed token and cookie lifetime
const TokenTTL = 90 * 24 * time.Hour

// CookieName is the HTTP-only cookie carrying the token
const CookieName = "jwt"

// GenerateToken signs a token whose subject is the user id
func GenerateToken(userID int64, secret string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken validates a signed token and returns the user id subject
func VerifyToken(token, secret string) (int64, error) {
	claims := new(jwt.RegisteredClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	if !parsed.Valid {
		return 0, jwt.ErrTokenUnverifiable
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// TokenCookie builds the HTTP-only token cookie
func TokenCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenTTL),
		HttpOnly: true,
		Path:     "/",
	}
}

// ExtractToken pulls the bearer token from the Authorization header or the
// token cookie. The returned code identifies the failure for the client.
func ExtractToken(c echo.Context) (token string, code string, message string) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
			return cookie.Value, "", ""
		}
		return "", "NO_AUTH_HEADER", "Access denied. No authorization header provided."
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "INVALID_AUTH_FORMAT", "Invalid authorization format. Expected format: 'Bearer <token>'"
	}
	token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", "EMPTY_TOKEN", "Access denied. Token is missing or empty."
	}
	return token, "", ""
}

func authFail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, map[string]interface{}{
		"status":  "fail",
		"message": message,
		"code":    code,
	})
}

// jwtAuth verifies the request token and loads the fresh user record into
// the context, so a deleted account is rejected even with a valid token
func (s *WebServer) jwtAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, code, message := ExtractToken(c)
		if code != "" {
			return authFail(c, http.StatusUnauthorized, code, message)
		}

		userID, err := VerifyToken(token, s.appctx.Config().Web.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return authFail(c, http.StatusUnauthorized, "TOKEN_EXPIRED",
					"Token has expired. Please log in again to get a new token.")
			}
			return authFail(c, http.StatusUnauthorized, "INVALID_TOKEN",
				"Invalid token. The token is malformed or has been tampered with.")
		}

		var user domain.User
		if err := s.appctx.DB().Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return authFail(c, http.StatusUnauthorized, "USER_NOT_FOUND",
					"The user belonging to this token no longer exists. Please log in again.")
			}
			return authFail(c, http.StatusInternalServerError, "DB_ERROR",
				"An error occurred while verifying user credentials.")
		}

		c.Set(ContextUserKey, user)
		return next(c)
	}
}

// requireAdmin rejects authenticated users without the admin role
func (s *WebServer) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(ContextUserKey).(domain.User)
		if !ok {
			return authFail(c, http.StatusUnauthorized, "USER_NOT_AUTHENTICATED",
				"User not authenticated.")
		}
		if !user.IsAdmin() {
			return authFail(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS",
				"Access denied. This action requires the admin role.")
		}
		return next(c)
	}
}
