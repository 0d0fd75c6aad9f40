package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sparrow/tools/errs"
	jwtlib "sparrow/tools/security"
)

// Context keys set by the middleware; downstream handlers read the caller
// identity through CtxUserIDKey.
const (
	CtxUserIDKey = "authUserId"
	CtxTokenKey  = "authorization"
)

type Options struct {
	JWT                       jwtlib.Options
	HeaderToken               string // default "authorization"
	EnableAuthorizationBearer bool   // accept "Authorization: Bearer xxx"
}

func DefaultOptions(secret []byte) *Options {
	return &Options{
		JWT:                       jwtlib.DefaultOptions(secret),
		HeaderToken:               CtxTokenKey,
		EnableAuthorizationBearer: true,
	}
}

// Middleware extracts and verifies the access token and stores the subject
// user id into the request context.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := jwtlib.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail(err.Error()))
			return
		}
		sub := claims.Subject()
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail("missing subject"))
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, sub)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
