package api

import (
	"errors"
	"net/http"
	"strconv"

	"forchetta/internal/auth"
	"forchetta/internal/database"
	"forchetta/internal/models"
	"forchetta/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type registerRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"required,oneof=customer owner"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new customer or owner account
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}

	db := database.GetDB()
	if err := db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	token, err := a.auth.Issue(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login verifies credentials and returns a fresh token
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	db := database.GetDB()
	err := db.Where("email = ? AND active = ?", req.Email, true).First(&user).Error
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := a.auth.Issue(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetProfile returns the authenticated account
func (a *API) GetProfile(c *gin.Context) {
	var user models.User
	if err := database.GetDB().First(&user, auth.UserID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the account's display fields
func (a *API) UpdateProfile(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, auth.UserID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	user.Name = req.Name
	if err := db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeactivateProfile disables the account. A customer loses their
// non-completed orders, which are pruned from any restaurant queue; an
// owner's restaurant is deactivated the same way.
func (a *API) DeactivateProfile(c *gin.Context) {
	userID := auth.UserID(c)
	role, _ := c.Get("role")

	if role == models.RoleOwner {
		restaurant, err := a.restaurants.FindByOwner(userID)
		switch {
		case err == nil:
			if err := a.restaurants.Deactivate(restaurant.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		case errors.Is(err, queue.ErrNotFound):
			// Owner never created a restaurant; nothing to tear down.
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		err = database.GetDB().Model(&models.User{}).Where("id = ?", userID).Update("active", false).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	} else {
		if err := a.orders.DeactivateCustomer(userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deactivated"})
}

// Card handlers

type addCardRequest struct {
	Holder   string `json:"holder" binding:"required"`
	Number   string `json:"number" binding:"required,min=12,max=19"`
	ExpMonth int    `json:"exp_month" binding:"required,min=1,max=12"`
	ExpYear  int    `json:"exp_year" binding:"required"`
}

// ListCards returns the customer's stored cards in masked form
func (a *API) ListCards(c *gin.Context) {
	var cards []models.PaymentCard
	database.GetDB().Where("user_id = ?", auth.UserID(c)).Find(&cards)
	c.JSON(http.StatusOK, cards)
}

// AddCard stores a card keeping only the last four digits. Cards are
// never charged.
func (a *API) AddCard(c *gin.Context) {
	var req addCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	card := models.PaymentCard{
		UserID:   auth.UserID(c),
		Holder:   req.Holder,
		LastFour: req.Number[len(req.Number)-4:],
		ExpMonth: req.ExpMonth,
		ExpYear:  req.ExpYear,
	}
	if err := database.GetDB().Create(&card).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, card)
}

// DeleteCard removes one stored card
func (a *API) DeleteCard(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card id"})
		return
	}

	db := database.GetDB()
	var card models.PaymentCard
	err = db.Where("id = ? AND user_id = ?", id, auth.UserID(c)).First(&card).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := db.Delete(&card).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card deleted"})
}
