package api

import (
	"net/http"
	"strconv"

	"forchetta/internal/auth"
	"forchetta/internal/database"
	"forchetta/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type restaurantRequest struct {
	Name        string `json:"name" binding:"required"`
	Cuisine     string `json:"cuisine"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type menuItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int    `json:"price" binding:"required,min=1"`
	PrepMinutes int    `json:"prep_minutes" binding:"required,min=1"`
}

// ListRestaurants returns active restaurants with optional name search and
// pagination (?q=, ?page=, ?per_page=)
func (a *API) ListRestaurants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	db := database.GetDB().Model(&models.Restaurant{}).Where("active = ?", true)
	if q := c.Query("q"); q != "" {
		db = db.Where("name LIKE ?", "%"+q+"%")
	}

	var total int64
	db.Count(&total)

	var restaurants []models.Restaurant
	db.Offset((page - 1) * perPage).Limit(perPage).Find(&restaurants)

	c.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"page":        page,
		"per_page":    perPage,
		"total":       total,
	})
}

// GetRestaurant returns one restaurant with its menu
func (a *API) GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	err := database.GetDB().Preload("MenuItems").
		Where("id = ? AND active = ?", c.Param("id"), true).
		First(&restaurant).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// CreateRestaurant registers the owner's restaurant. One restaurant per
// owner account.
func (a *API) CreateRestaurant(c *gin.Context) {
	var req restaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	var existing models.Restaurant
	if err := db.Where("owner_id = ?", auth.UserID(c)).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Owner already has a restaurant"})
		return
	}

	restaurant := models.Restaurant{
		OwnerID:     auth.UserID(c),
		Name:        req.Name,
		Cuisine:     req.Cuisine,
		Address:     req.Address,
		Description: req.Description,
		Active:      true,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}

// UpdateRestaurant updates the owner's restaurant profile
func (a *API) UpdateRestaurant(c *gin.Context) {
	restaurant, ok := a.ownedRestaurant(c)
	if !ok {
		return
	}

	var req restaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant.Name = req.Name
	restaurant.Cuisine = req.Cuisine
	restaurant.Address = req.Address
	restaurant.Description = req.Description
	if err := database.GetDB().Save(restaurant).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// DeleteRestaurant deactivates the restaurant, removing its non-completed
// orders and clearing its preparation queue
func (a *API) DeleteRestaurant(c *gin.Context) {
	restaurant, ok := a.ownedRestaurant(c)
	if !ok {
		return
	}
	if err := a.restaurants.Deactivate(restaurant.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	a.metrics.QueueDepth.WithLabelValues(restaurantLabel(restaurant.ID)).Set(0)
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deactivated"})
}

// Menu handlers

// AddMenuItem adds a dish to the owner's menu. A dish name appears at
// most once per restaurant.
func (a *API) AddMenuItem(c *gin.Context) {
	restaurant, ok := a.ownedRestaurant(c)
	if !ok {
		return
	}

	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	var existing models.MenuItem
	err := db.Where("restaurant_id = ? AND name = ?", restaurant.ID, req.Name).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Dish already on the menu"})
		return
	}
	if !gorm.IsRecordNotFoundError(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		PrepMinutes:  req.PrepMinutes,
	}
	if err := db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem edits a dish. Already-placed orders keep the price they
// were created with.
func (a *API) UpdateMenuItem(c *gin.Context) {
	restaurant, ok := a.ownedRestaurant(c)
	if !ok {
		return
	}

	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	var item models.MenuItem
	err := db.Where("restaurant_id = ? AND id = ?", restaurant.ID, c.Param("item")).First(&item).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.PrepMinutes = req.PrepMinutes
	if err := db.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteMenuItem removes a dish from the menu. Queued orders referencing
// it stay valid; the estimator degrades their contribution to zero.
func (a *API) DeleteMenuItem(c *gin.Context) {
	restaurant, ok := a.ownedRestaurant(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var item models.MenuItem
	err := db.Where("restaurant_id = ? AND id = ?", restaurant.ID, c.Param("item")).First(&item).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}
	if err := db.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish removed"})
}

// ownedRestaurant resolves the caller's restaurant and checks it matches
// the :id route parameter when one is present
func (a *API) ownedRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	restaurant, err := a.restaurants.FindByOwner(auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if param := c.Param("id"); param != "" {
		id, err := strconv.Atoi(param)
		if err != nil || uint(id) != restaurant.ID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
			return nil, false
		}
	}
	return restaurant, true
}
