package ws

import (
	"fmt"
	"time"

	"job-pipeline-backend/lib/pipeline"
	wsclient "job-pipeline-backend/lib/ws/client"
	connectionhub "job-pipeline-backend/lib/ws/hub/connection-hub"
	pipelineapimodels "job-pipeline-backend/models/api/pipeline"
	wsmodels "job-pipeline-backend/models/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const timeLayout = "02.01.2006 15:04:05"

// InitWs регистрирует /ws и подписывает хаб на события движка.
// Возвращает функцию отписки.
func InitWs(router fiber.Router, engine pipeline.Provider, hub connectionhub.Provider) func() {
	router.Use("", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		ctx.Locals("clientID", uuid.NewString())
		return ctx.Next()
	})
	router.Get("/", websocket.New(func(c *websocket.Conn) {
		eventsHandler(c, engine, hub)
	}))
	return engine.Subscribe(func(ev pipeline.Event) {
		hub.Broadcast(NewEventMessage(ev))
	})
}

// @Summary События воронки
// @Tags Websocket
// @Description При подключении приходит текущая воронка (code=connected), затем каждое изменение набора откликов
// @Success 200 {object} wsmodels.ServerMessage
// @Failure 426
// @router /ws [get]
func eventsHandler(c *websocket.Conn, engine pipeline.Provider, hub connectionhub.Provider) {
	clientID := c.Locals("clientID").(string)
	client := wsclient.NewClient(clientID, c)
	hub.AddClient(clientID, c)
	defer hub.DeleteClient(clientID)

	view, version := engine.Funnel()
	hub.SendMessage(clientID, wsmodels.ServerMessage{
		Time: time.Now().Format(timeLayout),
		Code: wsmodels.CodeConnected,
		Msg:  "Текущая воронка",
		Data: pipelineapimodels.FunnelView{Version: version, View: view},
	})
	client.Dispatch()
}

func NewEventMessage(ev pipeline.Event) wsmodels.ServerMessage {
	return wsmodels.ServerMessage{
		Time: time.Now().Format(timeLayout),
		Code: string(ev.Kind),
		Msg:  eventText(ev),
		Data: ev,
	}
}

func eventText(ev pipeline.Event) string {
	if ev.Mutation == "" {
		return fmt.Sprintf("%s: откликов %d", ev.Kind, ev.View.Total)
	}
	return fmt.Sprintf("%s %s: %d", ev.Kind, ev.Mutation, len(ev.IDs))
}
