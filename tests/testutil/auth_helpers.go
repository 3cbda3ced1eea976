package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/tableside-api/middleware"
)

// MockValidatedClaims creates validated claims carrying the given scopes
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// MockAuth returns a middleware that authenticates every request as a staff member with the given scopes
func MockAuth(userID string, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.ClaimsKey, MockValidatedClaims(userID, "https://test.auth0.com/", scopes))
		c.Next()
	}
}
