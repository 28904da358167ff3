package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication. Health checks must
// stay reachable for load balancers, and the hospital catalog is browsable
// before sign-up.
var publicPaths = map[string]bool{
	"/health":    true,
	"/health/db": true,
}

// publicPrefixes covers the read-only catalog endpoints. Only GETs under
// these prefixes are public; writes still require authentication.
var publicPrefixes = []string{
	"/api/v1/hospitals",
}

// AuthSkipper returns true for requests whose path should skip authentication.
func AuthSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	if publicPaths[path] {
		return true
	}
	if c.Request().Method == "GET" {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}
	return false
}

// IsPublicPath reports whether the given path is a public infrastructure
// endpoint that should bypass auth middleware.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
