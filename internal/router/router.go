package router

import (
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"petkeeper/internal/auth"
	"petkeeper/internal/config"
	"petkeeper/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	petHandler *handler.PetHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication). An unauthenticated call
	// gets a login redirect carrying the originally requested path so the
	// caller can be sent back after signing in.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: loginRedirect,
	}))

	secured.GET("/me", func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		claims, ok := token.Claims.(*auth.Claims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		return c.JSON(http.StatusOK, echo.Map{"user_id": claims.UserID, "email": claims.Email})
	})

	// Pet routes
	secured.GET("/pets", petHandler.ListPets)
	secured.POST("/pets", petHandler.CreatePet)
	secured.GET("/pets/:id", petHandler.GetPet)
	secured.PUT("/pets/:id", petHandler.UpdatePet)
	secured.DELETE("/pets/:id", petHandler.DeletePet)
}

// loginRedirect answers unauthenticated requests with the login entry point,
// preserving the requested destination in the redirect query.
func loginRedirect(c echo.Context, err error) error {
	dest := c.Request().URL.Path
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error":    "authentication required",
		"redirect": "/login?redirect=" + url.QueryEscape(dest),
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
