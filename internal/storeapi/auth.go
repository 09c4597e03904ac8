package storeapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/internal/webserver"
	"github.com/mallkit/mallkit/pkg/common"
)

type registerPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Photo    string `json:"photo"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func registerAuthRoutes() {
	webserver.PubPOST("/auth/register", registerUser)
	webserver.PubPOST("/auth/login", loginUser)
	webserver.PubPOST("/auth/refresh", refreshToken)
	webserver.ApiPOST("/auth/logout", logoutUser)
}

func registerUser(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse registration payload", err.Error())
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = common.NormalizeEmail(payload.Email)
	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Please provide name, email and password", nil)
	}
	if len(payload.Password) < 6 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Password must be at least 6 characters long", nil)
	}

	appctx := GetApp(c)
	if payload.Email == common.NormalizeEmail(appctx.Config().Store.AdminEmail) {
		return fail(c, http.StatusBadRequest, "RESERVED_EMAIL",
			"This email is reserved. Please use a different email.", nil)
	}

	db := GetDB(c)
	var count int64
	db.Model(&domain.User{}).Where("email = ?", payload.Email).Count(&count)
	if count > 0 {
		return fail(c, http.StatusBadRequest, "DUPLICATE_EMAIL", "User already exists with this email.", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to secure password", err.Error())
	}

	now := time.Now()
	user := domain.User{
		ID:        common.UUIDint64(),
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  string(hashed),
		Role:      domain.RoleUser,
		Photo:     strings.TrimSpace(payload.Photo),
		LastLogin: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user", err.Error())
	}

	token, err := webserver.GenerateToken(user.ID, appctx.Config().Web.Secret)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}
	c.SetCookie(webserver.TokenCookie(token))
	appctx.Sessions().Begin(user, token)

	return created(c, "User registered successfully.", authResponse{Token: token, User: user})
}

// loginUser verifies credentials. The response never says which of the
// two checks failed.
func loginUser(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login payload", err.Error())
	}
	payload.Email = common.NormalizeEmail(payload.Email)
	if payload.Email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Please provide email and password", nil)
	}

	db := GetDB(c)
	var user domain.User
	err := db.Where("email = ?", payload.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query user", err.Error())
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password.", nil)
	}

	now := time.Now()
	db.Model(&domain.User{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{"last_login": now, "updated_at": now})
	user.LastLogin = now

	appctx := GetApp(c)
	token, err := webserver.GenerateToken(user.ID, appctx.Config().Web.Secret)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}
	c.SetCookie(webserver.TokenCookie(token))
	appctx.Sessions().Begin(user, token)

	return ok(c, "Login successful.", authResponse{Token: token, User: user})
}

// refreshToken reissues a token for a still-valid credential. Public so a
// client can refresh with the cookie alone.
func refreshToken(c echo.Context) error {
	token, code, message := webserver.ExtractToken(c)
	if code != "" {
		return fail(c, http.StatusUnauthorized, code, message, nil)
	}

	appctx := GetApp(c)
	userID, err := webserver.VerifyToken(token, appctx.Config().Web.Secret)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token.", nil)
	}

	var user domain.User
	if err := GetDB(c).Where("id = ?", userID).First(&user).Error; err != nil {
		return fail(c, http.StatusUnauthorized, "USER_NOT_FOUND", "User no longer exists.", nil)
	}

	fresh, err := webserver.GenerateToken(user.ID, appctx.Config().Web.Secret)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", err.Error())
	}
	c.SetCookie(webserver.TokenCookie(fresh))
	return ok(c, "Token refreshed.", authResponse{Token: fresh, User: user})
}

// logoutUser ends the session. The mirrored state is cleared so nothing
// survives for an unauthenticated visitor.
func logoutUser(c echo.Context) error {
	appctx := GetApp(c)
	user := GetUser(c)
	if sess, found := appctx.Sessions().Get(user.ID); found {
		appctx.Sessions().Logout(sess)
	}

	expired := webserver.TokenCookie("")
	expired.MaxAge = -1
	expired.Expires = time.Unix(0, 0)
	c.SetCookie(expired)

	return ok(c, "Logged out successfully.", nil)
}
