package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"eato/internal/domain"
)

type MenuWriter interface {
	Upsert(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
}

// CSVImporter reads menu CSV files and inserts/updates menu items by key.
//
// Recognised columns: key, name, description, category, price (decimal, e.g.
// 12.50) or priceCents, image. Unknown columns are ignored.
type CSVImporter struct {
	reader *csv.Reader
	repo   MenuWriter
}

func NewCSVImporter(r io.Reader, repo MenuWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, repo: repo}
}

// Run parses CSV rows and upserts one menu item per row. Blank rows are skipped.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["key"]; !ok {
		return 0, errors.New("missing required column: key")
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		item, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if item == nil {
			continue
		}
		if _, err := i.repo.Upsert(ctx, *item); err != nil {
			return imported, fmt.Errorf("upsert menu item %q: %w", item.Key, err)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.MenuItem, error) {
	key := pick(record, index, "key")
	name := pick(record, index, "name")
	if key == "" && name == "" {
		return nil, nil
	}
	if key == "" || name == "" {
		return nil, fmt.Errorf("key and name are required (key=%q)", key)
	}

	var cents int64
	var err error
	if raw := pick(record, index, "pricecents"); raw != "" {
		cents, err = strconv.ParseInt(raw, 10, 64)
	} else {
		cents, err = parseDecimalCents(pick(record, index, "price"))
	}
	if err != nil {
		return nil, fmt.Errorf("invalid price for key %q: %w", key, err)
	}
	if cents <= 0 {
		return nil, fmt.Errorf("price must be positive for key %q", key)
	}

	return &domain.MenuItem{
		Key:         key,
		Name:        name,
		Description: pick(record, index, "description"),
		Category:    pick(record, index, "category"),
		PriceCents:  cents,
		Image:       pick(record, index, "image"),
	}, nil
}

// parseDecimalCents converts "12", "12.5" or "12.50" into cents without going
// through floating point.
func parseDecimalCents(v string) (int64, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "$")
	if v == "" {
		return 0, errors.New("empty price")
	}
	whole, frac, _ := strings.Cut(v, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("too many decimal places in %q", v)
	}
	frac += strings.Repeat("0", 2-len(frac))
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid fraction in %q", v)
	}
	return w*100 + f, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
