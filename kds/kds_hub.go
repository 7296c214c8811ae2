package kds

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/masalabite/pos-backend/models"
	"github.com/masalabite/pos-backend/utils"
)

// Event types pushed to connected displays.
const (
	EventOrderCreated  = "order_created"
	EventOrderUpdate   = "order_update"
	EventOrderPaid     = "order_paid"
	EventOrderCanceled = "order_canceled"
	EventItemServed    = "item_served"
	EventCounterClosed = "counter_closed"
	EventLowStock      = "low_stock"
	EventStaffNotif    = "staff_notification"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds the connected KDS clients (kitchen display, cashier screens)
// keyed by role.
type Hub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a connection with its role.
func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

// UnregisterClient drops and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastOrderCreated tells the kitchen a new order landed.
func BroadcastOrderCreated(order models.Order) {
	broadcast(Message{Event: EventOrderCreated, Data: order})
}

// BroadcastOrderUpdate pushes an edited order to all displays.
func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{Event: EventOrderUpdate, Data: order})
}

// BroadcastOrderPaid announces a settled order.
func BroadcastOrderPaid(order models.Order) {
	broadcast(Message{Event: EventOrderPaid, Data: order})
}

// BroadcastOrderCanceled announces a canceled order so the kitchen stops.
func BroadcastOrderCanceled(order models.Order) {
	broadcast(Message{Event: EventOrderCanceled, Data: order})
}

// BroadcastItemServed pushes a served-quantity change.
func BroadcastItemServed(item models.OrderItem) {
	broadcast(Message{Event: EventItemServed, Data: item})
}

// BroadcastCounterClosed notifies admin screens that the till was counted.
func BroadcastCounterClosed(counter models.DailyCashCounter) {
	broadcastToRoles(Message{Event: EventCounterClosed, Data: counter}, "admin", "owner")
}

// BroadcastLowStock warns admin screens about an item under threshold.
func BroadcastLowStock(item models.InventoryItem) {
	broadcastToRoles(Message{Event: EventLowStock, Data: item}, "admin", "owner")
}

// BroadcastStaffNotification sends a free-form notice to every client.
func BroadcastStaffNotification(text string) {
	broadcast(Message{Event: EventStaffNotif, Data: text})
}

func broadcast(msg Message) {
	broadcastToRoles(msg)
}

func broadcastToRoles(msg Message, roles ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("kds: marshal %s event: %v", msg.Event, err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn, role := range hub.clients {
		if len(roles) > 0 && !contains(roles, role) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("kds: write to %s client failed, dropping: %v", role, err)
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
