package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSOptions mirrors the cors configuration section.
type CORSOptions struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORS returns a configured CORS middleware.
func CORS(opts CORSOptions) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     opts.Origins,
		AllowMethods:     opts.Methods,
		AllowHeaders:     opts.Headers,
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           opts.MaxAge,
	})
}
