package fiberlog

import "github.com/sirupsen/logrus"

// Config is config for middleware
type Config struct {
	Logger *logrus.Logger
	Tags   []string
	// BinaryContentTypes ответы с таким Content-Type пишутся в лог без тела.
	// Пустой список заменяется DefaultBinaryContentTypes.
	BinaryContentTypes []string
}

// DefaultBinaryContentTypes выгрузки xlsx и pdf
var DefaultBinaryContentTypes = []string{
	"application/octet-stream",
	"application/vnd.ms-excel",
	"application/pdf",
}

// ConfigDefault is the default config
var ConfigDefault Config = Config{
	Logger: nil,
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
	},
}
