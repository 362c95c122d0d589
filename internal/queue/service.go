package queue

import (
	"fmt"
	"time"

	"forchetta/internal/models"
)

// Clock supplies the current time. Injected so elapsed-preparation math is
// testable against a simulated clock.
type Clock func() time.Time

// OrderStore is the order persistence interface the queue engine consumes
type OrderStore interface {
	// CreateQueued persists a new order and appends it to its restaurant's
	// queue as one unit of work. Both writes succeed or neither does,
	// except in the store's documented non-transactional degraded mode.
	CreateQueued(order *models.Order) error
	FindByID(id uint) (*models.Order, error)
	FindByIDs(ids []uint) (map[uint]*models.Order, error)
	// UpdateStatusIf sets the order's status to next only if the stored
	// status still equals expected, and reports whether the write applied.
	UpdateStatusIf(id uint, expected, next models.OrderStatus) (bool, error)
}

// RestaurantStore is the restaurant persistence interface the queue engine
// consumes. QueueOrderIDs returns order ids in arrival order.
type RestaurantStore interface {
	FindByOwner(ownerID uint) (*models.Restaurant, error)
	FindByID(id uint) (*models.Restaurant, error)
	QueueOrderIDs(restaurantID uint) ([]uint, error)
	RemoveFromQueue(restaurantID, orderID uint) error
	SetLastPrepStart(restaurantID uint, t time.Time) error
	MenuEntry(restaurantID, menuItemID uint) (*models.MenuItem, error)
}

// Service owns the order queue lifecycle: placement, advancement through
// the status machine, pickup confirmation, and wait-time estimation.
type Service struct {
	orders      OrderStore
	restaurants RestaurantStore
	now         Clock
}

// NewService creates a queue service backed by the given stores
func NewService(orders OrderStore, restaurants RestaurantStore) *Service {
	return &Service{
		orders:      orders,
		restaurants: restaurants,
		now:         time.Now,
	}
}

// SetClock overrides the service clock. Intended for tests.
func (s *Service) SetClock(now Clock) {
	s.now = now
}

// PlaceOrder creates an order in the received status and enqueues it at
// the tail of the restaurant's queue. The price is computed from the
// current menu entry, never taken from the caller.
func (s *Service) PlaceOrder(customerID, restaurantID, menuItemID uint, amount int) (*models.Order, error) {
	if amount < 1 {
		return nil, fmt.Errorf("amount must be at least 1, got %d", amount)
	}

	restaurant, err := s.restaurants.FindByID(restaurantID)
	if err != nil {
		return nil, err
	}
	if !restaurant.Active {
		return nil, ErrNotFound
	}

	item, err := s.restaurants.MenuEntry(restaurantID, menuItemID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		MenuItemID:   menuItemID,
		Amount:       amount,
		Price:        item.Price * amount,
		Status:       models.OrderStatusReceived,
	}
	if err := s.orders.CreateQueued(order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	return order, nil
}

// Advance moves one order a single step forward in its status machine and
// keeps the restaurant queue consistent. A zero orderID targets the
// current queue head; an empty queue is then a no-op returning (nil, nil).
//
// received -> preparing records the preparation start time on the
// restaurant when the promoted order is the queue head. preparing -> ready
// removes the order from the queue. Both transitions apply only if the
// stored status still matches; a concurrent advancement makes the loser
// fail with ErrConflict instead of double-transitioning.
func (s *Service) Advance(ownerID, orderID uint) (*models.Order, error) {
	restaurant, err := s.restaurants.FindByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	ids, err := s.restaurants.QueueOrderIDs(restaurant.ID)
	if err != nil {
		return nil, err
	}

	if orderID == 0 {
		if len(ids) == 0 {
			return nil, nil
		}
		orderID = ids[0]
	}

	order, err := s.orders.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.RestaurantID != restaurant.ID {
		return nil, ErrNotFound
	}

	// Captured before any mutation; only a head promotion may stamp the
	// preparation start time.
	wasHead := len(ids) > 0 && ids[0] == orderID

	next, progresses := order.Status.Next()
	if !progresses {
		return nil, ErrInvalidState
	}
	ok, err := s.orders.UpdateStatusIf(order.ID, order.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	order.Status = next

	switch next {
	case models.OrderStatusPreparing:
		if wasHead {
			if err := s.restaurants.SetLastPrepStart(restaurant.ID, s.now()); err != nil {
				return nil, err
			}
		}
	case models.OrderStatusReady:
		if err := s.restaurants.RemoveFromQueue(restaurant.ID, order.ID); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// ConfirmPickup finishes a ready order on behalf of the customer who
// placed it. Racing confirmations resolve the same way as advancement:
// exactly one wins, the other sees ErrConflict.
func (s *Service) ConfirmPickup(customerID, orderID uint) (*models.Order, error) {
	order, err := s.orders.FindByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotFound
	}

	switch order.Status {
	case models.OrderStatusReady:
		ok, err := s.orders.UpdateStatusIf(order.ID, models.OrderStatusReady, models.OrderStatusCompleted)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConflict
		}
		order.Status = models.OrderStatusCompleted
		return order, nil
	default:
		return nil, ErrInvalidState
	}
}
