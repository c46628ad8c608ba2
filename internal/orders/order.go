// Package orders keeps the order history of each session, built from
// checkout events.
package orders

import (
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/events"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateCheckout = errors.New("order for this checkout already exists")
)

type Status string

const (
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
)

const defaultCurrency = "USD"

type Item struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

type Order struct {
	ID          string    `json:"id"`
	CheckoutID  string    `json:"checkout_id"`
	SessionID   string    `json:"session_id"`
	TotalAmount float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	Status      Status    `json:"status"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
}

func fromEvent(id string, ev events.CartCheckedOut, now time.Time) Order {
	items := make([]Item, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, Item{
			ProductID:   it.ProductID,
			ProductName: it.DisplayName,
			Quantity:    it.Quantity,
			Price:       it.DiscountedUnitPrice,
			Total:       it.LineTotal,
		})
	}

	created := ev.CheckedOutAt
	if created.IsZero() {
		created = now
	}
	return Order{
		ID:          id,
		CheckoutID:  ev.CheckoutID,
		SessionID:   ev.SessionID,
		TotalAmount: ev.Total,
		Currency:    defaultCurrency,
		Status:      StatusConfirmed,
		Items:       items,
		CreatedAt:   created.UTC(),
	}
}
