package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
)

// TokenValidator turns a bearer token into the acting principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (appctx.Actor, error)
}

// Auth validates the bearer token and stores the actor in the request context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		if !actor.Valid() {
			abortUnauthorized(c, "token does not name an actor and pharmacy")
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Set("actor_id", actor.ActorID.String())
		c.Set("pharmacy_id", actor.PharmacyID.String())

		c.Next()
	}
}

// RequireRole allows the request through when the actor carries any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := appctx.GetActor(c.Request.Context())
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, required := range roles {
			if actor.HasRole(required) {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
