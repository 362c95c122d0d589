package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Restaurant represents a restaurant owned by a single owner account.
// Its preparation queue is kept as QueueEntry rows rather than embedded
// orders; the Order table stays the owner of order documents.
type Restaurant struct {
	gorm.Model
	OwnerID     uint `gorm:"unique_index"`
	Name        string
	Cuisine     string
	Address     string
	Description string
	Active      bool       `gorm:"default:true"`
	MenuItems   []MenuItem `gorm:"foreignkey:RestaurantID"`
	// LastPrepStart records when the current queue head began preparing.
	// Nil until the first head promotion.
	LastPrepStart *time.Time
}

// MenuItem represents a dish on a restaurant's menu. A dish name appears
// at most once per restaurant.
type MenuItem struct {
	gorm.Model
	RestaurantID uint `gorm:"index"`
	Name         string
	Description  string
	// Price in minor currency units per single serving
	Price int
	// PrepMinutes is the whole minutes needed to prepare one serving
	PrepMinutes int
}

// QueueEntry is one slot in a restaurant's FIFO preparation queue.
// Insertion order is arrival order; the auto-increment primary key is the
// queue position and is never reassigned.
type QueueEntry struct {
	ID           uint `gorm:"primary_key"`
	RestaurantID uint `gorm:"index"`
	OrderID      uint `gorm:"index"`
	CreatedAt    time.Time
}

// TableName sets the table name for QueueEntry
func (QueueEntry) TableName() string {
	return "queue_entries"
}
