package domain

import "time"

// LineStatus is the lifecycle state of an OrderLine.
type LineStatus string

const (
	LineStatusPending LineStatus = "pending"
	LineStatusPlaced  LineStatus = "placed"
)

// OrderLine records one add-to-cart action. Name and price are snapshotted
// from the menu at add time.
type OrderLine struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	MenuItemID     string     `json:"menuItemId"`
	MenuItemName   string     `json:"menuItemName"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	Quantity       int        `json:"quantity"`
	Status         LineStatus `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// CartEntry is the consolidated view of every pending line sharing a menu item name.
type CartEntry struct {
	MenuItemID     string   `json:"menuItemId"`
	Name           string   `json:"name"`
	UnitPriceCents int64    `json:"unitPriceCents"`
	Quantity       int      `json:"quantity"`
	SourceLineIDs  []string `json:"sourceLineIds"`
}
