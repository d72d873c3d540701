package bc

import (
	"strconv"
	"time"
)

// MappedItem is the local-shaped projection of one external item, ready for
// upsert. Nil price or quantity means the external record did not carry the
// field, and the corresponding local value must be left untouched.
type MappedItem struct {
	ExternalID   string
	SKU          string
	Name         string
	Description  *string
	Price        *string
	Quantity     *float64
	Blocked      bool
	CategoryID   *string
	CategoryCode *string
	LastModified time.Time
}

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// Map converts a Business Central item to the local shape.
func (t *Transformer) Map(item *ExternalItem) *MappedItem {
	mapped := &MappedItem{
		ExternalID:   item.ID,
		SKU:          item.Number,
		Name:         item.DisplayName,
		Description:  item.Description,
		Quantity:     item.Inventory,
		Blocked:      item.Blocked,
		CategoryID:   item.ItemCategoryID,
		CategoryCode: item.ItemCategoryCode,
		LastModified: item.LastModified,
	}

	if item.UnitPrice != nil {
		price := strconv.FormatFloat(*item.UnitPrice, 'f', 2, 64)
		mapped.Price = &price
	}

	return mapped
}

// StockStatus derives the local stock status: a blocked item or one with no
// remaining inventory is out of stock regardless of anything else.
func StockStatus(blocked bool, quantity *float64) string {
	if blocked {
		return "outofstock"
	}
	if quantity != nil && *quantity <= 0 {
		return "outofstock"
	}
	return "instock"
}

// Visibility hides blocked items from the catalog.
func Visibility(blocked bool) string {
	if blocked {
		return "hidden"
	}
	return "visible"
}
