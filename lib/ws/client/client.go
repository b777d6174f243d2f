package wsclient

import (
	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
)

func NewClient(clientID string, c *websocket.Conn) *WsClient {
	return &WsClient{
		conn:     c,
		clientID: clientID,
	}
}

// WsClient входящий поток клиента. Сервер только пушит события,
// чтение нужно чтобы заметить закрытие соединения.
type WsClient struct {
	conn     *websocket.Conn
	clientID string
}

var closeCodes []int

func init() {
	for i := websocket.CloseNormalClosure; i <= websocket.CloseTLSHandshake; i++ {
		closeCodes = append(closeCodes, i)
	}
}

func (c *WsClient) Dispatch() {
	logger := log.WithField("client_id", c.clientID)
	for {
		if c.conn == nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, closeCodes...) {
				logger.WithError(err).Error("ошибка получения сообщения")
			}
			return
		}
		logger.WithField("ws_message", string(data)).Debug("ws-msg")
	}
}
