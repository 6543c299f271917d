package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/middlewares"
	"mach-lagbe/models"
	"mach-lagbe/policy"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
	feedBufferSize = 32
)

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// OrderFeed streams order events to connected admin dashboards. It satisfies
// services.IEventPublisher so it can be fed directly or from the consumer.
type OrderFeed struct {
	mu       sync.Mutex
	clients  map[*feedClient]struct{}
	sessions middlewares.SessionResolver
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewOrderFeed(sessions middlewares.SessionResolver, allowedOrigins []string, log logrus.FieldLogger) *OrderFeed {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &OrderFeed{
		clients:  make(map[*feedClient]struct{}),
		sessions: sessions,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Handler authenticates with ?token= (browsers cannot set headers on a
// websocket handshake) or a bearer header, then requires an admin.
func (f *OrderFeed) Handler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middlewares.BearerToken(c)
	}
	id, err := f.sessions.ResolveSession(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := policy.Authorize(id, policy.OrderListAny, primitive.NilObjectID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.WithError(err).Warn("Order feed upgrade failed")
		return
	}
	client := &feedClient{conn: conn, send: make(chan []byte, feedBufferSize)}
	f.register(client)
	f.log.WithField("user_id", id.UserID.Hex()).Info("Order feed client connected")

	go f.writePump(client)
	f.readPump(client)
}

func (f *OrderFeed) register(client *feedClient) {
	f.mu.Lock()
	f.clients[client] = struct{}{}
	f.mu.Unlock()
}

func (f *OrderFeed) unregister(client *feedClient) {
	f.mu.Lock()
	if _, ok := f.clients[client]; ok {
		delete(f.clients, client)
		close(client.send)
	}
	f.mu.Unlock()
}

// readPump drains control frames until the client goes away.
func (f *OrderFeed) readPump(client *feedClient) {
	defer func() {
		f.unregister(client)
		client.conn.Close()
	}()
	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *OrderFeed) writePump(client *feedClient) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PublishOrderEvent fans the event out. Clients whose buffer is full are
// dropped rather than blocking the publisher.
func (f *OrderFeed) PublishOrderEvent(_ context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for client := range f.clients {
		select {
		case client.send <- data:
		default:
			delete(f.clients, client)
			close(client.send)
		}
	}
	return nil
}

// Clients reports the number of connected dashboards.
func (f *OrderFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close disconnects every client.
func (f *OrderFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for client := range f.clients {
		delete(f.clients, client)
		close(client.send)
	}
}
