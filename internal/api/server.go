package api

import (
	"errors"
	"net/http"

	"forchetta/internal/auth"
	"forchetta/internal/database"
	"forchetta/internal/models"
	"forchetta/internal/monitoring"
	"forchetta/internal/queue"

	"github.com/gin-gonic/gin"
)

// API represents the main HTTP handler for the ordering platform
type API struct {
	Router *gin.Engine

	queue       *queue.Service
	orders      *database.Orders
	restaurants *database.Restaurants
	auth        *auth.Manager
	metrics     *monitoring.Metrics
	feed        *feed
}

// New creates the API instance and registers all routes
func New(svc *queue.Service, orders *database.Orders, restaurants *database.Restaurants, manager *auth.Manager, metrics *monitoring.Metrics) *API {
	router := gin.Default()

	a := &API{
		Router:      router,
		queue:       svc,
		orders:      orders,
		restaurants: restaurants,
		auth:        manager,
		metrics:     metrics,
		feed:        newFeed(),
	}

	a.setupRoutes()
	return a
}

// setupRoutes configures all API endpoints
func (a *API) setupRoutes() {
	// Health check
	a.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "forchetta API is running"})
	})

	a.Router.POST("/auth/register", a.Register)
	a.Router.POST("/auth/login", a.Login)

	v1 := a.Router.Group("/api/v1")

	// Public catalog
	v1.GET("/restaurants", a.ListRestaurants)
	v1.GET("/restaurants/:id", a.GetRestaurant)

	authed := v1.Group("", a.auth.Middleware())
	{
		authed.GET("/profile", a.GetProfile)
		authed.PUT("/profile", a.UpdateProfile)
		authed.DELETE("/profile", a.DeactivateProfile)
	}

	customer := v1.Group("", a.auth.Middleware(), auth.RequireRole(models.RoleCustomer))
	{
		customer.GET("/cards", a.ListCards)
		customer.POST("/cards", a.AddCard)
		customer.DELETE("/cards/:id", a.DeleteCard)

		customer.POST("/orders", a.PlaceOrder)
		customer.GET("/orders", a.ListOrders)
		customer.GET("/orders/:id", a.GetOrder)
		customer.POST("/orders/:id/pickup", a.ConfirmPickup)
		customer.GET("/orders/:id/estimate", a.EstimateWait)
	}

	owner := v1.Group("", a.auth.Middleware(), auth.RequireRole(models.RoleOwner))
	{
		owner.POST("/restaurants", a.CreateRestaurant)
		owner.PUT("/restaurants/:id", a.UpdateRestaurant)
		owner.DELETE("/restaurants/:id", a.DeleteRestaurant)

		owner.POST("/restaurants/:id/menu", a.AddMenuItem)
		owner.PUT("/restaurants/:id/menu/:item", a.UpdateMenuItem)
		owner.DELETE("/restaurants/:id/menu/:item", a.DeleteMenuItem)

		owner.GET("/queue", a.GetQueue)
		owner.POST("/queue/advance", a.AdvanceQueue)
		owner.GET("/queue/live", a.QueueLive)
	}
}

// respondError maps domain errors to transport status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, queue.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflicting update, retry"})
	case errors.Is(err, queue.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Order cannot advance from its current status"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
