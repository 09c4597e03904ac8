package storeapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mallkit/mallkit/internal/app"
	"github.com/mallkit/mallkit/internal/catalog"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/internal/session"
	"github.com/mallkit/mallkit/internal/webserver"
)

// Register wires all storefront routes into the web server
func Register() {
	registerProductRoutes()
	registerAuthRoutes()
	registerCartRoutes()
	registerOrderRoutes()
}

// GetApp returns the application context injected by the web server
func GetApp(c echo.Context) app.AppContext {
	return c.Get(webserver.ContextAppKey).(app.AppContext)
}

// GetDB returns the database handle
func GetDB(c echo.Context) *gorm.DB {
	return GetApp(c).DB()
}

// GetUser returns the authenticated user loaded by the JWT middleware
func GetUser(c echo.Context) domain.User {
	user, _ := c.Get(webserver.ContextUserKey).(domain.User)
	return user
}

// getSession returns the live session for the authenticated user, resuming
// a mirrored one after a restart
func getSession(c echo.Context) *session.Session {
	user := GetUser(c)
	mgr := GetApp(c).Sessions()
	if sess, found := mgr.Get(user.ID); found {
		return sess
	}
	token, _, _ := webserver.ExtractToken(c)
	return mgr.Begin(user, token)
}

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// fail sends the client-visible error envelope. detail is logged server
// side only, it never reaches the response body.
func fail(c echo.Context, status int, code, message string, detail interface{}) error {
	if detail != nil {
		zap.L().Error("request failed",
			zap.String("path", c.Path()),
			zap.String("code", code),
			zap.Any("detail", detail))
	}
	envelope := "fail"
	if status >= http.StatusInternalServerError {
		envelope = "error"
		message = "Internal server error"
	}
	return c.JSON(status, map[string]interface{}{
		"status":  envelope,
		"message": message,
		"code":    code,
	})
}

// paged sends the list envelope with pagination metadata
func paged(c echo.Context, message string, data interface{}, result int, pagination catalog.Pagination) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "success",
		"result":     result,
		"message":    message,
		"data":       data,
		"pagination": pagination,
	})
}

// parsePagination reads page/limit with the catalog defaults
func parsePagination(c echo.Context) (page, limit int) {
	page = catalog.DefaultPage
	limit = catalog.DefaultLimit
	if p := cast.ToInt(c.QueryParam("page")); p > 0 {
		page = p
	}
	if l := cast.ToInt(c.QueryParam("limit")); l > 0 && l <= catalog.MaxLimit {
		limit = l
	}
	return page, limit
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
