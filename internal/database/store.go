package database

import (
	"fmt"
	"log"
	"time"

	"forchetta/internal/models"
	"forchetta/internal/queue"

	"github.com/jinzhu/gorm"
)

// Orders is the gorm-backed order store consumed by the queue engine
type Orders struct {
	db *gorm.DB
	// transactional disables the multi-write transaction for storage that
	// cannot transact. In degraded mode the order row is written before
	// its queue entry, leaving a narrow window where an order exists but
	// is not yet queued.
	transactional bool
}

// NewOrders creates an order store on the given connection
func NewOrders(db *gorm.DB, transactional bool) *Orders {
	return &Orders{db: db, transactional: transactional}
}

// CreateQueued persists a new order and its queue entry as one unit
func (s *Orders) CreateQueued(order *models.Order) error {
	if !s.transactional {
		if err := s.db.Create(order).Error; err != nil {
			return err
		}
		return s.db.Create(&models.QueueEntry{RestaurantID: order.RestaurantID, OrderID: order.ID}).Error
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Create(&models.QueueEntry{RestaurantID: order.RestaurantID, OrderID: order.ID}).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// FindByID looks up one order
func (s *Orders) FindByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, queue.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByIDs loads the given orders keyed by id
func (s *Orders) FindByIDs(ids []uint) (map[uint]*models.Order, error) {
	result := make(map[uint]*models.Order, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var orders []models.Order
	if err := s.db.Where("id IN (?)", ids).Find(&orders).Error; err != nil {
		return nil, err
	}
	for i := range orders {
		result[orders[i].ID] = &orders[i]
	}
	return result, nil
}

// UpdateStatusIf performs the conditional status transition. The WHERE
// clause carries the expected status so a concurrent transition makes the
// update match zero rows rather than overwriting the newer status.
func (s *Orders) UpdateStatusIf(id uint, expected, next models.OrderStatus) (bool, error) {
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindInQueueOrder returns the restaurant's orders in the given statuses,
// ordered by creation time. This is the reconciliation read used to
// rebuild a queue whose entries were lost to the degraded
// non-transactional write mode.
func (s *Orders) FindInQueueOrder(restaurantID uint, statuses []models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Where("restaurant_id = ? AND status IN (?)", restaurantID, statuses).
		Order("created_at, id").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DeactivateCustomer disables the account and removes its non-completed
// orders, pruning them from any restaurant queue.
func (s *Orders) DeactivateCustomer(userID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var ids []uint
	err := tx.Model(&models.Order{}).
		Where("customer_id = ? AND status <> ?", userID, models.OrderStatusCompleted).
		Pluck("id", &ids).Error
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to collect orders for deactivation: %w", err)
	}

	if len(ids) > 0 {
		if err := tx.Where("order_id IN (?)", ids).Delete(&models.QueueEntry{}).Error; err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Where("id IN (?)", ids).Delete(&models.Order{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("active", false).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// Restaurants is the gorm-backed restaurant store consumed by the queue
// engine. It also owns the queue entry table, which is a secondary index
// over orders rather than an embedding.
type Restaurants struct {
	db *gorm.DB
}

// NewRestaurants creates a restaurant store on the given connection
func NewRestaurants(db *gorm.DB) *Restaurants {
	return &Restaurants{db: db}
}

// FindByOwner resolves the active restaurant owned by the given user
func (s *Restaurants) FindByOwner(ownerID uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.db.Where("owner_id = ? AND active = ?", ownerID, true).First(&restaurant).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, queue.ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

// FindByID looks up one restaurant
func (s *Restaurants) FindByID(id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, queue.ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

// QueueOrderIDs returns the restaurant's queued order ids in arrival order
func (s *Restaurants) QueueOrderIDs(restaurantID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&models.QueueEntry{}).
		Where("restaurant_id = ?", restaurantID).
		Order("id").
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RemoveFromQueue deletes the queue entry for the given order
func (s *Restaurants) RemoveFromQueue(restaurantID, orderID uint) error {
	return s.db.Where("restaurant_id = ? AND order_id = ?", restaurantID, orderID).
		Delete(&models.QueueEntry{}).Error
}

// SetLastPrepStart stamps when the current queue head began preparing
func (s *Restaurants) SetLastPrepStart(restaurantID uint, t time.Time) error {
	return s.db.Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		Update("last_prep_start", t).Error
}

// MenuEntry resolves one dish on a restaurant's menu
func (s *Restaurants) MenuEntry(restaurantID, menuItemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.Where("restaurant_id = ? AND id = ?", restaurantID, menuItemID).First(&item).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, queue.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ReconcileQueues re-derives missing queue entries from order state for
// every active restaurant. Orders in a queued status without a queue
// entry are appended in creation order. Run at startup; it repairs the
// inconsistency window the degraded non-transactional mode accepts.
func ReconcileQueues(orders *Orders, restaurants *Restaurants) error {
	var all []models.Restaurant
	if err := restaurants.db.Where("active = ?", true).Find(&all).Error; err != nil {
		return err
	}

	queuedStatuses := []models.OrderStatus{models.OrderStatusReceived, models.OrderStatusPreparing}
	for _, restaurant := range all {
		queued, err := orders.FindInQueueOrder(restaurant.ID, queuedStatuses)
		if err != nil {
			return err
		}
		ids, err := restaurants.QueueOrderIDs(restaurant.ID)
		if err != nil {
			return err
		}

		present := make(map[uint]bool, len(ids))
		for _, id := range ids {
			present[id] = true
		}
		for _, order := range queued {
			if present[order.ID] {
				continue
			}
			log.Printf("restoring lost queue entry for order %d at restaurant %d", order.ID, restaurant.ID)
			entry := models.QueueEntry{RestaurantID: restaurant.ID, OrderID: order.ID}
			if err := restaurants.db.Create(&entry).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// Deactivate disables the restaurant and removes its non-completed orders
// together with the whole queue. Queue entries only ever reference
// non-completed orders, so the queue is cleared outright.
func (s *Restaurants) Deactivate(restaurantID uint) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&models.QueueEntry{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	err := tx.Where("restaurant_id = ? AND status <> ?", restaurantID, models.OrderStatusCompleted).
		Delete(&models.Order{}).Error
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.Restaurant{}).Where("id = ?", restaurantID).Update("active", false).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
