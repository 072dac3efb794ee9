package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single connected WebSocket client. CompanyID pins
// the connection to its tenant; the hub never sends it another
// company's events.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	CompanyID uuid.UUID
	Send      chan []byte
}

type broadcastMessage struct {
	CompanyID uuid.UUID
	Data      []byte
}

// Hub maintains the set of active clients and delivers shop events
// (order status changes, low-stock alerts) to the connections of the
// company they belong to.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan broadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the core dispatch loop for WebSocket events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Println("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.dispatch(message)
		}
	}
}

// dispatch fans a message out to the clients of its company only.
func (h *Hub) dispatch(message broadcastMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.CompanyID != message.CompanyID {
			continue
		}
		select {
		case client.Send <- message.Data:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

type event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func (h *Hub) publish(companyID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("failed to encode %s event: %v", eventType, err)
		return
	}
	// Non-blocking: drop the event when nobody is draining the channel.
	select {
	case h.Broadcast <- broadcastMessage{CompanyID: companyID, Data: data}:
	default:
	}
}

// PublishOrderStatus notifies a company's listeners that an order moved
// to a new status.
func (h *Hub) PublishOrderStatus(companyID, orderID uuid.UUID, status string) {
	h.publish(companyID, "order_status", gin.H{"order_id": orderID, "status": status})
}

// PublishStockAlert notifies a company's listeners that a product
// dropped to critical stock.
func (h *Hub) PublishStockAlert(companyID, productID uuid.UUID, name string, currentStock int) {
	h.publish(companyID, "stock_alert", gin.H{"product_id": productID, "name": name, "current_stock": currentStock})
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		_ = c.Conn.Close()
	}()
	for {
		// Just reading to keep connection alive
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}
	}
}

// ServeWs handles websocket requests from the peer
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	// Authenticate via token query param
	tokenString := c.Query("token")
	if tokenString == "" {
		log.Println("WebSocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})

	if err != nil || !token.Valid {
		log.Println("WebSocket connection rejected: invalid token:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		log.Println("WebSocket connection rejected: invalid claims")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if _, ok := claims["sub"].(string); !ok {
		log.Println("WebSocket connection rejected: missing subject")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	// Events are per-tenant, so a connection without a company (e.g. a
	// superuser token) has no stream to join.
	rawCompanyID, _ := claims["company_id"].(string)
	companyID, err := uuid.Parse(rawCompanyID)
	if err != nil {
		log.Println("WebSocket connection rejected: missing company")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, CompanyID: companyID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
