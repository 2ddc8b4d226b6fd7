package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// CatalogItem is one priced product record. Items are created once at
// catalog load and never mutated afterwards.
type CatalogItem struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	NormalizedName string  `json:"-"`
	Cost           float64 `json:"cost"`
	Category       string  `json:"category,omitempty"`
}

// Catalog is an ordered, frozen snapshot of catalog items. Insertion order
// is significant: it is the tie-break order for similarity search.
type Catalog struct {
	items []CatalogItem
	byID  map[int64]int
	hash  string
}

func NewCatalog(items []CatalogItem) *Catalog {
	byID := make(map[int64]int, len(items))
	hasher := sha256.New()
	for pos, item := range items {
		if _, ok := byID[item.ID]; !ok {
			byID[item.ID] = pos
		}
		fmt.Fprintf(hasher, "%d\x1f%s\x1f%s\x1f%s\x1f%s\x1e",
			item.ID,
			item.NormalizedName,
			strconv.FormatFloat(item.Cost, 'f', -1, 64),
			item.Category,
			item.Name,
		)
	}
	return &Catalog{
		items: items,
		byID:  byID,
		hash:  hex.EncodeToString(hasher.Sum(nil)),
	}
}

func (c *Catalog) Items() []CatalogItem {
	return c.items
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) ByID(id int64) (CatalogItem, bool) {
	pos, ok := c.byID[id]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[pos], true
}

func (c *Catalog) PositionOf(id int64) (int, bool) {
	pos, ok := c.byID[id]
	return pos, ok
}

// ContentHash identifies the catalog content; an index built from the same
// content may be reused instead of re-embedded.
func (c *Catalog) ContentHash() string {
	return c.hash
}

// NormalizeName lowercases a product name and collapses runs of whitespace.
// Used for indexing only; display keeps the original name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// FormatPrice renders a numeric price for display ("13 688 руб.").
func FormatPrice(price float64, currency string) string {
	whole := int64(price + 0.5)
	digits := strconv.FormatInt(whole, 10)

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	if currency == "" {
		return b.String()
	}
	return b.String() + " " + currency
}
