package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS разрешает фронтенду редактора PATCH и чтение Content-Disposition у экспорта.
// origins - список через запятую, пустой или "*" разрешает всех без credentials.
func CORS(origins string) fiber.Handler {
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Authorization",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: origins != "*",
	})
}
