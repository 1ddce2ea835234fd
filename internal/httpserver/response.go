package httpserver

import (
	"eato/internal/domain"
	cartsvc "eato/internal/service/cart"
)

type sessionResponse struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn"`
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Results: items}
}

type cartResponse struct {
	Entries       []domain.CartEntry `json:"entries"`
	TotalQuantity int                `json:"totalQuantity"`
	cartsvc.Totals
}

func toCartResponse(entries []domain.CartEntry) cartResponse {
	if entries == nil {
		entries = []domain.CartEntry{}
	}
	qty := 0
	for _, e := range entries {
		qty += e.Quantity
	}
	return cartResponse{
		Entries:       entries,
		TotalQuantity: qty,
		Totals:        cartsvc.Price(entries),
	}
}

type checkoutResponse struct {
	OrderID         string   `json:"orderId"`
	Next            string   `json:"next"`
	UnplacedLineIDs []string `json:"unplacedLineIds,omitempty"`
}

type removeResponse struct {
	Removed       bool     `json:"removed"`
	FailedLineIDs []string `json:"failedLineIds,omitempty"`
}

func orderPath(id string) string {
	return "/orders/" + id
}
