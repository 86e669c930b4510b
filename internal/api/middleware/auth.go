package middleware

import (
	"errors"

	"parcel-courier/internal/models"
	"parcel-courier/internal/web"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LoadSession reads the admin session cookie and, when it holds a valid token,
// puts the models.SessionUser into the context under web.SessionKey. Requests
// without a valid session continue anonymously.
func LoadSession(jwtSecretKey string, logger *zap.Logger) echo.MiddlewareFunc {
	config := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.AdminClaims)
		},
		SigningKey:    []byte(jwtSecretKey),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		TokenLookup:   "cookie:" + web.SessionCookie,

		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*models.AdminClaims)
			if !ok {
				return
			}
			c.Set(web.SessionKey, models.SessionUser{Username: claims.Username, Authenticated: true})
		},

		ErrorHandler: func(c echo.Context, err error) error {
			if !errors.Is(err, echojwt.ErrJWTMissing) {
				logger.Debug("Ignoring invalid session cookie", zap.String("ip", c.RealIP()), zap.Error(err))
			}
			return nil
		},
		ContinueOnIgnoredError: true,
	}
	return echojwt.WithConfig(config)
}

// RequireSession gates admin pages. Anonymous requests are redirected home with
// the "unauthorized" notice. It must run after LoadSession.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !web.SessionFrom(c).Authenticated {
				return web.Redirect(c, "/", "unauthorized")
			}
			return next(c)
		}
	}
}
