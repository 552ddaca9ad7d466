package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/service"
)

const userKey = "user"

// Authenticator resolves a raw bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*model.User, error)
}

// UserAuth requires a valid bearer token and stores the user in the context.
func UserAuth(auth Authenticator) gin.HandlerFunc {
	return userAuth(auth, true)
}

// OptionalUserAuth resolves a bearer token when one is sent. Requests
// without one continue anonymously; a bad token is still rejected.
func OptionalUserAuth(auth Authenticator) gin.HandlerFunc {
	return userAuth(auth, false)
}

func userAuth(auth Authenticator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, authSpan := otel.Tracer("middleware").Start(c.Request.Context(), "user_auth",
			trace.WithAttributes(attribute.Bool("required", required)))
		defer authSpan.End()

		header := c.GetHeader("Authorization")
		if header == "" && !required {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		u, err := auth.Authenticate(ctx, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			if errors.Is(err, service.ErrForbidden) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
				return
			}
			authSpan.RecordError(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		// tag the request span so traces can be filtered by user
		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.Int64("user_id", int64(u.ID)))
		}
		authSpan.SetAttributes(
			attribute.Int64("user_id", int64(u.ID)),
			attribute.Bool("authenticated", true),
		)

		c.Set(userKey, u)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// SetUser is used by tests and internal callers to act as u.
func SetUser(c *gin.Context, u *model.User) {
	c.Set(userKey, u)
}
