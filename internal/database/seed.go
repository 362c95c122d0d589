package database

import (
	"log"

	"forchetta/internal/auth"
	"forchetta/internal/models"

	"github.com/jinzhu/gorm"
)

// SeedDefaultData ensures a demo owner, restaurant, and menu exist so a
// fresh deployment has something to order from
func SeedDefaultData(db *gorm.DB) {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount > 0 {
		return
	}

	hash, err := auth.HashPassword("trattoria1")
	if err != nil {
		log.Printf("Failed to hash demo password: %v", err)
		return
	}
	owner := models.User{
		Name:         "Demo Owner",
		Email:        "owner@demo.local",
		PasswordHash: hash,
		Role:         models.RoleOwner,
		Active:       true,
	}
	if err := db.Create(&owner).Error; err != nil {
		log.Printf("Failed to create demo owner: %v", err)
		return
	}

	restaurant := models.Restaurant{
		OwnerID:     owner.ID,
		Name:        "Trattoria Demo",
		Cuisine:     "italian",
		Address:     "1 Demo Street",
		Description: "Seeded demo restaurant",
		Active:      true,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		log.Printf("Failed to create demo restaurant: %v", err)
		return
	}

	menu := []models.MenuItem{
		{RestaurantID: restaurant.ID, Name: "Margherita", Price: 850, PrepMinutes: 10},
		{RestaurantID: restaurant.ID, Name: "Carbonara", Price: 1150, PrepMinutes: 15},
		{RestaurantID: restaurant.ID, Name: "Tiramisu", Price: 600, PrepMinutes: 5},
	}
	for _, item := range menu {
		if err := db.Create(&item).Error; err != nil {
			log.Printf("Failed to create demo dish %s: %v", item.Name, err)
		}
	}
}
