package domain

import "time"

type OrderStatus string

const OrderStatusPlaced OrderStatus = "placed"

type PaymentStatus string

const PaymentStatusPending PaymentStatus = "pending"

// SyncState tracks whether every line referenced by an order was flipped to placed.
type SyncState string

const (
	SyncStateComplete   SyncState = "complete"
	SyncStateIncomplete SyncState = "incomplete"
)

type OrderItem struct {
	MenuItemID     string `json:"menuItemId"`
	MenuItemName   string `json:"menuItemName"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
}

// Order is written once at checkout and never mutated afterwards, apart from
// SyncState bookkeeping.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Items         []OrderItem   `json:"items"`
	LineIDs       []string      `json:"lineIds"`
	SubtotalCents int64         `json:"subtotalCents"`
	TaxCents      int64         `json:"taxCents"`
	DeliveryCents int64         `json:"deliveryCents"`
	TotalCents    int64         `json:"totalCents"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	SyncState     SyncState     `json:"syncState"`
	PlacedAt      time.Time     `json:"placedAt"`
}
