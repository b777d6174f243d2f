package connectionhub

import (
	"sync"

	wsmodels "job-pipeline-backend/models/ws"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
)

type Provider interface {
	AddClient(clientID string, conn *websocket.Conn)
	DeleteClient(clientID string)
	SendMessage(clientID string, msg wsmodels.ServerMessage)
	Broadcast(msg wsmodels.ServerMessage)
	SendClose(clientID string)
	IsConnected(clientID string) bool
	Count() int
}

var Instance Provider

func Init(bufferSize int) {
	Instance = NewInstance(bufferSize)
}

func NewInstance(bufferSize int) Provider {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &impl{
		clients:    map[string]clientSession{},
		bufferSize: bufferSize,
	}
}

type impl struct {
	mu         sync.RWMutex
	clients    map[string]clientSession //map[clientID]
	bufferSize int
}

// DeleteClient возвращается после остановки отправки, после этого
// соединение можно освобождать
func (i *impl) DeleteClient(clientID string) {
	i.mu.Lock()
	sess, ok := i.clients[clientID]
	if ok {
		delete(i.clients, clientID)
	}
	i.mu.Unlock()
	if !ok {
		return
	}
	sess.stop()
	<-sess.done
}

func (i *impl) AddClient(clientID string, conn *websocket.Conn) {
	i.mu.Lock()
	defer i.mu.Unlock()
	oldSess, ok := i.clients[clientID]
	if ok {
		oldSess.stop()
	}
	i.clients[clientID] = newSession(clientID, conn, i.bufferSize)
}

func (i *impl) SendMessage(clientID string, msg wsmodels.ServerMessage) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[clientID]
	if ok {
		sess.enqueue(msg)
	}
}

// Broadcast не блокируется: медленный клиент теряет сообщение
func (i *impl) Broadcast(msg wsmodels.ServerMessage) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, sess := range i.clients {
		sess.enqueue(msg)
	}
}

func (i *impl) SendClose(clientID string) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[clientID]
	if ok {
		sess.stop()
	}
}

func (i *impl) IsConnected(clientID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	sess, ok := i.clients[clientID]
	if !ok || sess.conn == nil || sess.conn.Conn == nil {
		return false
	}
	return true
}

func (i *impl) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.clients)
}

func (s clientSession) enqueue(msg wsmodels.ServerMessage) {
	select {
	case s.sendCh <- msg:
	default:
		log.
			WithField("client_id", s.clientID).
			WithField("code", msg.Code).
			Warn("очередь отправки клиента переполнена, сообщение пропущено")
	}
}
