package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/contacts_api/internal/metrics"
	authmw "github.com/Skotchmaster/contacts_api/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/contacts_api/internal/middleware/logging"
	"github.com/Skotchmaster/contacts_api/internal/models"
)

const rateLimitMessage = "Rate limit exceeded. Please try again later."

type Deps struct {
	AuthHandler     *AuthHTTP
	UsersHandler    *UsersHTTP
	ContactsHandler *ContactsHTTP
	UtilsHandler    *UtilsHTTP

	Resolver authmw.Resolver
	Metrics  *metrics.Metrics

	// MePerMinute throttles GET /api/users/me per remote address. Zero disables it.
	MePerMinute int
}

// New builds the echo instance with the shared middleware chain and all routes.
func New(d *Deps, logger *slog.Logger, corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     corsOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderOrigin, echo.HeaderAccept},
	}))

	Register(e, d)
	return e
}

func meRateLimiter(perMinute int) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": rateLimitMessage})
		},
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", d.UtilsHandler.Welcome)
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.UtilsHandler.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")
	api.GET("/healthchecker", d.UtilsHandler.Healthchecker)

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/request_email", d.AuthHandler.RequestEmail)
	auth.GET("/confirmed_email/:token", d.AuthHandler.ConfirmEmail)
	auth.POST("/reset_password", d.AuthHandler.ResetPassword)
	auth.PATCH("/update_password/:token", d.AuthHandler.UpdatePassword)

	requireAuth := authmw.RequireAuth(d.Resolver)

	users := api.Group("/users", requireAuth)
	if d.MePerMinute > 0 {
		users.GET("/me", d.UsersHandler.Me, meRateLimiter(d.MePerMinute))
	} else {
		users.GET("/me", d.UsersHandler.Me)
	}
	users.PATCH("/avatar", d.UsersHandler.UpdateAvatar, authmw.RequireRole(models.RoleAdmin))

	contacts := api.Group("/contacts", requireAuth)
	contacts.GET("", d.ContactsHandler.List)
	contacts.POST("", d.ContactsHandler.Create)
	contacts.GET("/search", d.ContactsHandler.Search)
	contacts.POST("/upcoming-birthdays", d.ContactsHandler.UpcomingBirthdays)
	contacts.GET("/:id", d.ContactsHandler.Get)
	contacts.PUT("/:id", d.ContactsHandler.Update)
	contacts.DELETE("/:id", d.ContactsHandler.Remove)
}
