package webserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mallkit/mallkit/internal/app"
)

// echo context keys populated by the middlewares
const (
	ContextAppKey  = "appctx"
	ContextUserKey = "user"
)

var server *WebServer

type WebServer struct {
	root   *echo.Echo
	appctx app.AppContext
	public *echo.Group
	authed *echo.Group
	admin  *echo.Group
}

// Init builds the web server and its route groups. Handlers are registered
// afterwards through the Pub/Api/Admin helpers.
func Init(appctx app.AppContext) *WebServer {
	server = &WebServer{root: echo.New(), appctx: appctx}
	server.initRouter()
	return server
}

func (s *WebServer) initRouter() {
	s.root.Pre(middleware.RemoveTrailingSlash())
	s.root.Use(middleware.Recover())
	s.root.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextAppKey, s.appctx)
			return next(c)
		}
	})
	s.root.HideBanner = true
	s.root.HTTPErrorHandler = s.errorHandler

	api := s.root.Group("/api/v1")

	// the public group carries the rate limiter: register/login probes are
	// the only unauthenticated writes
	s.public = api.Group("")
	s.public.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	s.authed = api.Group("")
	s.authed.Use(s.jwtAuth)

	s.admin = api.Group("")
	s.admin.Use(s.jwtAuth, s.requireAdmin)
}

func (s *WebServer) errorHandler(err error, c echo.Context) {
	if he, ok := err.(*echo.HTTPError); ok {
		message := fmt.Sprintf("%v", he.Message)
		_ = c.JSON(he.Code, map[string]interface{}{
			"status":  "fail",
			"message": message,
		})
		return
	}
	zap.L().Error("unhandled web error", zap.String("path", c.Path()), zap.Error(err))
	_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"status":  "error",
		"message": "Internal server error",
	})
}

// Listen starts the server on the configured address
func Listen() error {
	cfg := server.appctx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("starting web server", zap.String("addr", addr))
	return server.root.Start(addr)
}

// Shutdown closes the listener
func Shutdown() error {
	return server.root.Close()
}

// ServeHTTP exposes the server as a plain http.Handler
func (s *WebServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.root.ServeHTTP(w, r)
}

// PubGET registers an unauthenticated GET route
func PubGET(path string, h echo.HandlerFunc) {
	server.public.GET(path, h)
}

// PubPOST registers an unauthenticated POST route
func PubPOST(path string, h echo.HandlerFunc) {
	server.public.POST(path, h)
}

// ApiGET registers an authenticated GET route
func ApiGET(path string, h echo.HandlerFunc) {
	server.authed.GET(path, h)
}

// ApiPOST registers an authenticated POST route
func ApiPOST(path string, h echo.HandlerFunc) {
	server.authed.POST(path, h)
}

// ApiPUT registers an authenticated PUT route
func ApiPUT(path string, h echo.HandlerFunc) {
	server.authed.PUT(path, h)
}

// ApiDELETE registers an authenticated DELETE route
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.authed.DELETE(path, h)
}

// AdminGET registers an admin-only GET route
func AdminGET(path string, h echo.HandlerFunc) {
	server.admin.GET(path, h)
}

// AdminPOST registers an admin-only POST route
func AdminPOST(path string, h echo.HandlerFunc) {
	server.admin.POST(path, h)
}

// AdminPUT registers an admin-only PUT route
func AdminPUT(path string, h echo.HandlerFunc) {
	server.admin.PUT(path, h)
}

// AdminDELETE registers an admin-only DELETE route
func AdminDELETE(path string, h echo.HandlerFunc) {
	server.admin.DELETE(path, h)
}
