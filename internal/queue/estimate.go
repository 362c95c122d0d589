package queue

import (
	"log"

	"forchetta/internal/models"
)

// QueueItem is one queued order together with its projected wait
type QueueItem struct {
	Order           models.Order `json:"order"`
	EstimateMinutes float64      `json:"estimate_minutes"`
}

// QueueSnapshot is a restaurant's queue in arrival order, as served to the
// owner dashboard and the live feed
type QueueSnapshot struct {
	RestaurantID uint        `json:"restaurant_id"`
	Entries      []QueueItem `json:"entries"`
}

// Estimate computes the expected minutes until the order reaches the ready
// status. Orders no longer (or never) in their restaurant's queue estimate
// to 0. The walk sums preparation time times amount for every entry from
// the head through the target order, then credits the head's elapsed
// preparation when it is already in progress.
func (s *Service) Estimate(orderID uint) (float64, error) {
	order, err := s.orders.FindByID(orderID)
	if err != nil {
		return 0, err
	}

	restaurant, err := s.restaurants.FindByID(order.RestaurantID)
	if err != nil {
		return 0, err
	}

	ids, err := s.restaurants.QueueOrderIDs(restaurant.ID)
	if err != nil {
		return 0, err
	}

	queued, err := s.orders.FindByIDs(ids)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for i, id := range ids {
		entry, ok := queued[id]
		if !ok {
			log.Printf("queue entry %d of restaurant %d references missing order", id, restaurant.ID)
			continue
		}
		total += s.entryMinutes(restaurant, entry, i == 0)
		if id == order.ID {
			return total, nil
		}
	}

	// Not in the queue: already ready, completed, or never enqueued.
	return 0, nil
}

// Snapshot returns the owner's current queue with a cumulative wait
// estimate per entry, computed in one pass over the queue.
func (s *Service) Snapshot(ownerID uint) (*QueueSnapshot, error) {
	restaurant, err := s.restaurants.FindByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	ids, err := s.restaurants.QueueOrderIDs(restaurant.ID)
	if err != nil {
		return nil, err
	}

	queued, err := s.orders.FindByIDs(ids)
	if err != nil {
		return nil, err
	}

	snapshot := &QueueSnapshot{RestaurantID: restaurant.ID, Entries: make([]QueueItem, 0, len(ids))}
	total := 0.0
	for i, id := range ids {
		entry, ok := queued[id]
		if !ok {
			log.Printf("queue entry %d of restaurant %d references missing order", id, restaurant.ID)
			continue
		}
		total += s.entryMinutes(restaurant, entry, i == 0)
		snapshot.Entries = append(snapshot.Entries, QueueItem{Order: *entry, EstimateMinutes: total})
	}
	return snapshot, nil
}

// entryMinutes is one queue entry's remaining contribution in minutes.
// For the head entry that is already preparing, the elapsed time since the
// restaurant's preparation start is subtracted, clamped so the entry never
// contributes less than 0.
func (s *Service) entryMinutes(restaurant *models.Restaurant, order *models.Order, head bool) float64 {
	item, err := s.restaurants.MenuEntry(restaurant.ID, order.MenuItemID)
	if err != nil {
		// A queued order pointing at a dish that left the menu degrades to
		// a zero contribution instead of failing the whole estimate.
		log.Printf("order %d references dish %d missing from restaurant %d menu", order.ID, order.MenuItemID, restaurant.ID)
		return 0
	}

	minutes := float64(item.PrepMinutes * order.Amount)
	if head && order.Status == models.OrderStatusPreparing && restaurant.LastPrepStart != nil {
		elapsed := s.now().Sub(*restaurant.LastPrepStart).Minutes()
		if elapsed >= minutes {
			return 0
		}
		minutes -= elapsed
	}
	return minutes
}
