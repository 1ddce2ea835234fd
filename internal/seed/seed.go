package seed

import (
	"context"
	"fmt"

	"eato/internal/domain"
)

type menuWriter interface {
	Upsert(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
}

// DefaultMenu is the demo menu used for manual testing.
var DefaultMenu = []domain.MenuItem{
	{
		Key:         "margherita",
		Name:        "Margherita Pizza",
		Description: "San Marzano tomato, fior di latte, basil",
		Category:    "Pizza",
		PriceCents:  1250,
		Image:       "menu/margherita.jpg",
	},
	{
		Key:         "pepperoni",
		Name:        "Pepperoni Pizza",
		Description: "Tomato, mozzarella, spicy pepperoni",
		Category:    "Pizza",
		PriceCents:  1399,
		Image:       "menu/pepperoni.jpg",
	},
	{
		Key:         "classic-burger",
		Name:        "Classic Burger",
		Description: "Beef patty, cheddar, pickles, house sauce",
		Category:    "Burger",
		PriceCents:  1099,
		Image:       "menu/classic-burger.jpg",
	},
	{
		Key:         "lemonade",
		Name:        "Fresh Lemonade",
		Description: "Squeezed to order",
		Category:    "Drinks",
		PriceCents:  399,
		Image:       "menu/lemonade.jpg",
	},
	{
		Key:         "tiramisu",
		Name:        "Tiramisu",
		Description: "Mascarpone, espresso, cocoa",
		Category:    "Dessert",
		PriceCents:  699,
		Image:       "menu/tiramisu.jpg",
	},
}

// Apply upserts the demo menu. It is idempotent: items are keyed by Key.
func Apply(ctx context.Context, repo menuWriter) (int, error) {
	for _, item := range DefaultMenu {
		if _, err := repo.Upsert(ctx, item); err != nil {
			return 0, fmt.Errorf("upsert menu item %s: %w", item.Key, err)
		}
	}
	return len(DefaultMenu), nil
}
