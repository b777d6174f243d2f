package main

import (
	"context"
	"fmt"
	"job-pipeline-backend/config"
	apiv1 "job-pipeline-backend/controllers/v1"
	"job-pipeline-backend/fiberlog"
	"job-pipeline-backend/initializers"
	"job-pipeline-backend/lib/ws"
	"job-pipeline-backend/middleware"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	services := initializers.InitAllServices(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // limit of 10MB
	})
	app.Use(fiberRecover.New())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	//api
	apiV1 := fiber.New()
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	apiV1.Use(middleware.ErrNotify(config.Conf.App.ErrNotifyAddr))
	apiV1.Use(middleware.WithBodyLimit(config.Conf.App.BodyLimit))
	app.Mount("/api/v1", apiV1)
	apiV1.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))
	apiv1.InitPipelineApiRouters(apiV1, services.Engine, services.History)
	apiv1.InitAnalyticsApiRouters(apiV1, services.Engine, services.Export, services.Report)

	//ws
	unsubscribe := ws.InitWs(app.Group("/ws"), services.Engine, services.Hub)

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-c
		log.Info("Gracefully shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Error when try gracefully shutting down")
		}
		unsubscribe()
		services.Shutdown()
		log.Info("Gracefully shutting down finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
	log.Info("HTTP server successfully stopped")
}
