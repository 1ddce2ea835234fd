package cart

import "eato/internal/domain"

// Aggregate folds pending lines into one entry per menu item name. Entries keep
// the order in which their name was first seen; unit price and menu item id
// come from the first line of each group.
func Aggregate(lines []domain.OrderLine) []domain.CartEntry {
	entries := []domain.CartEntry{}
	index := make(map[string]int)
	for _, l := range lines {
		i, ok := index[l.MenuItemName]
		if !ok {
			index[l.MenuItemName] = len(entries)
			entries = append(entries, domain.CartEntry{
				MenuItemID:     l.MenuItemID,
				Name:           l.MenuItemName,
				UnitPriceCents: l.UnitPriceCents,
				Quantity:       l.Quantity,
				SourceLineIDs:  []string{l.ID},
			})
			continue
		}
		entries[i].Quantity += l.Quantity
		entries[i].SourceLineIDs = append(entries[i].SourceLineIDs, l.ID)
	}
	return entries
}

func cloneEntries(in []domain.CartEntry) []domain.CartEntry {
	out := make([]domain.CartEntry, len(in))
	for i, e := range in {
		out[i] = e
		out[i].SourceLineIDs = append([]string(nil), e.SourceLineIDs...)
	}
	return out
}
