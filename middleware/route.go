package middleware

import (
	"github.com/gin-gonic/gin"

	midsec "sparrow/middleware/security"
)

type RouteOpt struct {
	IsAuth bool
}

var authOpts *midsec.Options

// Configure sets the jwt options used by the auth-guarded route wrappers.
// Call once from bootstrap before registering routes.
func Configure(secret []byte) {
	authOpts = midsec.DefaultOptions(secret)
}

func POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.POST(path, midsec.Middleware(authOpts), handler)
	} else {
		r.POST(path, handler)
	}
}

func GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	if opt.IsAuth {
		r.GET(path, midsec.Middleware(authOpts), handler)
	} else {
		r.GET(path, handler)
	}
}
