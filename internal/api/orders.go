package api

import (
	"net/http"
	"strconv"
	"time"

	"forchetta/internal/auth"
	"forchetta/internal/database"
	"forchetta/internal/models"

	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	RestaurantID uint `json:"restaurant_id" binding:"required"`
	MenuItemID   uint `json:"menu_item_id" binding:"required"`
	Amount       int  `json:"amount" binding:"required,min=1"`
}

// PlaceOrder checks out a single-dish order. The order is created in the
// received status and enqueued at the restaurant in the same unit of work.
func (a *API) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := a.queue.PlaceOrder(auth.UserID(c), req.RestaurantID, req.MenuItemID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	a.metrics.OrdersPlaced.Inc()
	a.refreshQueueDepth(order.RestaurantID)
	a.feed.Notify(order.RestaurantID)

	c.JSON(http.StatusCreated, order)
}

// ListOrders returns the customer's own orders, newest first
func (a *API) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var orders []models.Order
	database.GetDB().Where("customer_id = ?", auth.UserID(c)).
		Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&orders)

	c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "per_page": perPage})
}

// GetOrder returns one of the customer's orders
func (a *API) GetOrder(c *gin.Context) {
	order, ok := a.ownOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// ConfirmPickup moves a ready order to completed on behalf of its customer
func (a *API) ConfirmPickup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := a.queue.ConfirmPickup(auth.UserID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	a.metrics.Pickups.Inc()
	c.JSON(http.StatusOK, order)
}

// EstimateWait returns the projected minutes until the order is ready
func (a *API) EstimateWait(c *gin.Context) {
	order, ok := a.ownOrder(c)
	if !ok {
		return
	}

	start := time.Now()
	minutes, err := a.queue.Estimate(order.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	a.metrics.EstimateSeconds.Observe(time.Since(start).Seconds())

	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "estimate_minutes": minutes})
}

// ownOrder loads the :id order and enforces that it belongs to the caller
func (a *API) ownOrder(c *gin.Context) (*models.Order, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return nil, false
	}

	order, err := a.orders.FindByID(uint(id))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if order.CustomerID != auth.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return nil, false
	}
	return order, true
}
