package fiberlog

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	TagPid         = "pid"
	TagLatency     = "latency"
	TagStatus      = "status"
	TagMethod      = "method"
	TagPath        = "path"
	TagURL         = "url"
	TagIP          = "ip"
	TagUA          = "ua"
	TagQuery       = "query"
	TagBody        = "body"
	TagResBody     = "resBody"
	TagBytesSent   = "bytesSent"
	TagError       = "error"
	RequestID      = "requestId"
	requestIDHead  = "X-Request-ID"
	maxBodyLogSize = 4096
)

// data параметры одного запроса
type data struct {
	pid   int
	start time.Time
	end   time.Time
	err   error
}

// FuncTag значение поля лога для тега
type FuncTag func(c *fiber.Ctx, d *data) interface{}

func getFuncTagMap(cfg Config) map[string]FuncTag {
	binaryTypes := cfg.BinaryContentTypes
	if len(binaryTypes) == 0 {
		binaryTypes = DefaultBinaryContentTypes
	}
	all := map[string]FuncTag{
		TagPid: func(_ *fiber.Ctx, d *data) interface{} {
			return d.pid
		},
		TagLatency: func(_ *fiber.Ctx, d *data) interface{} {
			return d.end.Sub(d.start).String()
		},
		TagStatus: func(c *fiber.Ctx, _ *data) interface{} {
			return c.Response().StatusCode()
		},
		TagMethod: func(c *fiber.Ctx, _ *data) interface{} {
			return c.Method()
		},
		TagPath: func(c *fiber.Ctx, _ *data) interface{} {
			return c.Path()
		},
		TagURL: func(c *fiber.Ctx, _ *data) interface{} {
			return c.OriginalURL()
		},
		TagIP: func(c *fiber.Ctx, _ *data) interface{} {
			return c.IP()
		},
		TagUA: func(c *fiber.Ctx, _ *data) interface{} {
			return c.Get(fiber.HeaderUserAgent)
		},
		TagQuery: func(c *fiber.Ctx, _ *data) interface{} {
			return string(c.Request().URI().QueryString())
		},
		TagBody: func(c *fiber.Ctx, _ *data) interface{} {
			return truncate(c.Body())
		},
		TagResBody: func(c *fiber.Ctx, _ *data) interface{} {
			if isBinary(c.GetRespHeader(fiber.HeaderContentType), binaryTypes) {
				return ""
			}
			return truncate(c.Response().Body())
		},
		TagBytesSent: func(c *fiber.Ctx, _ *data) interface{} {
			return len(c.Response().Body())
		},
		TagError: func(_ *fiber.Ctx, d *data) interface{} {
			if d.err == nil {
				return ""
			}
			return d.err.Error()
		},
		RequestID: func(c *fiber.Ctx, _ *data) interface{} {
			return c.GetRespHeader(requestIDHead, c.Get(requestIDHead))
		},
	}
	result := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := all[tag]; ok {
			result[tag] = ft
		}
	}
	return result
}

func truncate(body []byte) string {
	if len(body) > maxBodyLogSize {
		return string(body[:maxBodyLogSize]) + "..."
	}
	return string(body)
}

func isBinary(contentType string, binaryTypes []string) bool {
	for _, item := range binaryTypes {
		if strings.HasPrefix(contentType, item) {
			return true
		}
	}
	return false
}
