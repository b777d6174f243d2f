package config

import (
	"time"

	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr string `default:"" env:"APP_HOST"`
		Port       int    `default:"8080"  env:"APP_PORT"`
		// лимит тела запроса к api в байтах
		BodyLimit     int64  `default:"10485760" env:"APP_BODY_LIMIT"`
		ErrNotifyAddr string `default:"" env:"APP_ERR_NOTIFY_ADDR"`
	}
	Database struct {
		Host           string `default:"127.0.0.1" env:"DB_HOST"`
		Port           string `default:"5432" env:"DB_PORT"`
		Name           string `default:"job-pipeline" env:"DB_NAME"`
		User           string `default:"postgres" env:"DB_USER"`
		Password       string `default:"postgres" env:"DB_PASSWORD"`
		MigrateOnStart *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode      *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Pipeline struct {
		RefreshIntervalSec int `default:"300" env:"PIPELINE_REFRESH_INTERVAL_SEC"` // 0 - периодическая синхронизация выключена
		BulkConcurrency    int `default:"4" env:"PIPELINE_BULK_CONCURRENCY"`
		CommitTimeoutSec   int `default:"30" env:"PIPELINE_COMMIT_TIMEOUT_SEC"`
		NotifyBuffer       int `default:"64" env:"PIPELINE_NOTIFY_BUFFER"` // очередь отправки на одно ws соединение
	}
	Export struct {
		FontDir string `default:"static/font/" env:"EXPORT_FONT_DIR"`
	}
}

func (c Configuration) RefreshInterval() time.Duration {
	return time.Duration(c.Pipeline.RefreshIntervalSec) * time.Second
}

func (c Configuration) CommitTimeout() time.Duration {
	return time.Duration(c.Pipeline.CommitTimeoutSec) * time.Second
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf, err := Load(configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}

func Load(files ...string) (*Configuration, error) {
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, files...)
	if err != nil {
		return nil, err
	}
	return conf, nil
}
