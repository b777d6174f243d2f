package middleware

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// WithBodyLimit отклоняет запрос по заголовку Content-Length до чтения тела
func WithBodyLimit(limit int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentLength := c.Get(fiber.HeaderContentLength)
		if contentLength == "" || contentLength == "0" {
			return c.Next()
		}
		size, err := strconv.ParseInt(contentLength, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "некорректный заголовок Content-Length",
			})
		}
		if size > limit {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"status":  "error",
				"message": fmt.Sprintf("слишком большое тело запроса, максимум %d байт", limit),
			})
		}
		return c.Next()
	}
}
