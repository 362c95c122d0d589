package models

import (
	"github.com/jinzhu/gorm"
)

// Order represents a single customer order for one dish
type Order struct {
	gorm.Model
	CustomerID   uint `gorm:"index"`
	RestaurantID uint `gorm:"index"`
	MenuItemID   uint
	Amount       int
	// Price is the total in minor currency units, computed on the server
	// from the menu price at placement time. Later menu edits do not
	// change it.
	Price  int
	Status OrderStatus `gorm:"type:varchar(16);index"`
}

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
)

// Next returns the status a kitchen advancement moves an order to from
// s, or false when the kitchen is done with it. The final ready to
// completed step belongs to the customer's pickup, not the kitchen.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusReceived:
		return OrderStatusPreparing, true
	case OrderStatusPreparing:
		return OrderStatusReady, true
	default:
		return "", false
	}
}

// Queued reports whether an order with this status belongs in a
// restaurant's preparation queue.
func (s OrderStatus) Queued() bool {
	return s == OrderStatusReceived || s == OrderStatusPreparing
}
