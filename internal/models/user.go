package models

import (
	"github.com/jinzhu/gorm"
)

// User represents a platform account, either a customer or a restaurant
// owner. The role decides which route groups the account may call.
type User struct {
	gorm.Model
	Name         string
	Email        string `gorm:"unique_index"`
	PasswordHash string `json:"-"`
	Role         Role   `gorm:"type:varchar(16)"`
	Active       bool   `gorm:"default:true"`
}

// Role represents an account role
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOwner    Role = "owner"
)

// PaymentCard stores a customer card in masked form. Cards are never
// charged; only the last four digits survive past the create request.
type PaymentCard struct {
	gorm.Model
	UserID   uint `gorm:"index"`
	Holder   string
	LastFour string
	ExpMonth int
	ExpYear  int
}
