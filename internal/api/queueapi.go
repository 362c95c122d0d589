package api

import (
	"net/http"
	"strconv"

	"forchetta/internal/auth"
	"forchetta/internal/queue"

	"github.com/gin-gonic/gin"
)

type advanceRequest struct {
	// OrderID targets a specific order; zero or omitted targets the
	// current queue head.
	OrderID uint `json:"order_id"`
}

// GetQueue returns the owner's preparation queue in arrival order with a
// cumulative wait estimate per entry
func (a *API) GetQueue(c *gin.Context) {
	snapshot, err := a.queue.Snapshot(auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// AdvanceQueue moves an order one step forward in its status machine.
// With an empty queue and no explicit order this is a no-op.
func (a *API) AdvanceQueue(c *gin.Context) {
	var req advanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	order, err := a.queue.Advance(auth.UserID(c), req.OrderID)
	switch {
	case err == queue.ErrConflict:
		a.metrics.Conflicts.Inc()
		a.metrics.Advancements.WithLabelValues("conflict").Inc()
		respondError(c, err)
		return
	case err != nil:
		a.metrics.Advancements.WithLabelValues("error").Inc()
		respondError(c, err)
		return
	case order == nil:
		a.metrics.Advancements.WithLabelValues("noop").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Queue is empty"})
		return
	}

	a.metrics.Advancements.WithLabelValues("ok").Inc()
	a.refreshQueueDepth(order.RestaurantID)
	a.feed.Notify(order.RestaurantID)

	c.JSON(http.StatusOK, order)
}

// refreshQueueDepth re-reads the queue length into the depth gauge
func (a *API) refreshQueueDepth(restaurantID uint) {
	ids, err := a.restaurants.QueueOrderIDs(restaurantID)
	if err != nil {
		return
	}
	a.metrics.QueueDepth.WithLabelValues(restaurantLabel(restaurantID)).Set(float64(len(ids)))
}

func restaurantLabel(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
