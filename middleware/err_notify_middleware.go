package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type errNotification struct {
	Code   int    `json:"code"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// ErrNotify отправляет на addr уведомление о каждом ответе 5xx.
// Пустой addr выключает уведомления.
func ErrNotify(addr string) fiber.Handler {
	client := &http.Client{Timeout: 5 * time.Second}
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if addr == "" {
			return err
		}
		statusCode := c.Response().StatusCode()
		if statusCode < fiber.StatusInternalServerError {
			return err
		}

		var data struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		body := string(c.Response().Body())
		if unmErr := json.Unmarshal(c.Response().Body(), &data); unmErr != nil {
			log.WithError(unmErr).Debug("ошибка разбора тела ответа для уведомления")
		}
		msg := data.Message
		if msg == "" {
			msg = body
		}
		path := c.OriginalURL()
		if r := c.Route(); r != nil {
			path = r.Path
		}
		notification := errNotification{
			Code:   statusCode,
			Method: c.Method(),
			Path:   path,
			Error:  msg,
		}

		go func() {
			payload, mErr := json.Marshal(notification)
			if mErr != nil {
				log.WithError(mErr).Warn("ошибка формирования уведомления об ошибке")
				return
			}
			resp, reqErr := client.Post(addr, fiber.MIMEApplicationJSON, strings.NewReader(string(payload)))
			if reqErr != nil {
				log.WithError(reqErr).Warn("ошибка отправки уведомления об ошибке")
				return
			}
			resp.Body.Close()
		}()
		return err
	}
}
