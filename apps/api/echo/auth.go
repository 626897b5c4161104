package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
)

const contextTokenKey = "userToken"

var (
	signingMethod = jwt.SigningMethodHS256

	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")

	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		ContextKey:     contextTokenKey,
		ParseTokenFunc: parseToken,
		ErrorHandler:   func(error) error { return errInvalidToken },
	}
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// GetClaims returns the session claims of p.
func GetClaims(p core.Principal) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    core.Conf.AppName,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(core.Conf.Server.JWTExpirationDelta)),
		},
		Email:      p.Email,
		Role:       p.Role,
		Name:       p.Name,
		Department: p.Department,
	}
}

func (c Claims) Principal() core.Principal {
	return core.Principal{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role, Department: c.Department}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString([]byte(core.Conf.SecretKey))
	return ss, errors.Wrap(err, "signing token")
}

func parseToken(auth string, _ echo.Context) (interface{}, error) {
	token, err := jwt.ParseWithClaims(
		auth,
		new(Claims),
		func(*jwt.Token) (interface{}, error) { return []byte(core.Conf.SecretKey), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func contextHasAnyRole(ctx echo.Context, roles []account.Role) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		for _, role := range roles {
			if claims.Role == role.String() {
				return true
			}
		}
	}
	return false
}
