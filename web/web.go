// Package web embeds the static admin console and serves it from the
// same binary as the API. The console is a plain single-page app: it
// keeps the bearer token in localStorage and talks to /api like any
// external client would, so it enjoys no special trust.
package web

import (
	"embed"

	"github.com/labstack/echo/v4"
)

//go:embed static
var assets embed.FS

// Register mounts the console at the site root. Explicit API routes take
// precedence over the catch-all static handler.
func Register(e *echo.Echo) {
	e.StaticFS("/", echo.MustSubFS(assets, "static"))
}
