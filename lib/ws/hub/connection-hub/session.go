package connectionhub

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
)

type clientSession struct {
	clientID string
	conn     *websocket.Conn

	// Outbound messages, buffered.
	// The content must be serialized in format suitable for the session.
	sendCh chan any
	stop   func()
	done   chan struct{}
}

const writeWait = 10 * time.Second

func newSession(clientID string, conn *websocket.Conn, bufferSize int) clientSession {
	ctx, cancelFn := context.WithCancel(context.TODO())
	sess := clientSession{
		clientID: clientID,
		stop:     cancelFn,
		conn:     conn,
		sendCh:   make(chan any, bufferSize),
		done:     make(chan struct{}),
	}
	go sess.startSend(ctx)
	return sess
}

// startSend единственный писатель в соединение
func (s clientSession) startSend(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case msg := <-s.sendCh:
			if err := s.send(msg); err != nil {
				log.WithError(err).WithField("client_id", s.clientID).Error("ошибка отправки сообщения")
			}
		}
	}
}

func (s clientSession) send(msg interface{}) error {
	if s.conn == nil || s.conn.Conn == nil {
		return nil
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return err
	}
	log.WithField("client_id", s.clientID).Debugf("отправлено сообщение: %+v", msg)
	return nil
}

func (s clientSession) close() {
	if s.conn == nil || s.conn.Conn == nil {
		return
	}
	err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	if err != nil {
		log.WithError(err).WithField("client_id", s.clientID).Debug("cant close")
	}
}
