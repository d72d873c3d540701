package sync

import (
	"strings"

	"bcsync/internal/models"
	"bcsync/internal/services/bc"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionSkip   Action = "SKIP"
)

// DiffRow is one line of the dry-run preview table.
type DiffRow struct {
	SKU     string   `json:"sku"`
	Name    string   `json:"name"`
	Action  Action   `json:"action"`
	Changes []string `json:"changes,omitempty"`
}

// DiffEngine classifies an external item against the last known local state.
// It never mutates anything and is safe to run alongside a real sync.
type DiffEngine struct{}

func NewDiffEngine() *DiffEngine {
	return &DiffEngine{}
}

// Classify decides CREATE, UPDATE or SKIP and names the changed fields.
// Price comparison is an exact normalized decimal string match, never a
// float epsilon. A present category code is always reported as
// "category(map check)" because only the mapper can tell whether the
// assignment would actually change.
func (d *DiffEngine) Classify(item *bc.MappedItem, existing *models.Product) DiffRow {
	row := DiffRow{SKU: item.SKU, Name: item.Name}

	if existing == nil {
		row.Action = ActionCreate
		return row
	}

	var changes []string

	if existing.Name != item.Name {
		changes = append(changes, "name")
	}

	if item.Price != nil {
		if existing.Price == nil || !priceEqual(*existing.Price, *item.Price) {
			changes = append(changes, "price")
		}
	}

	if existing.ManageStock {
		if item.Quantity != nil && (existing.StockQuantity == nil || *existing.StockQuantity != *item.Quantity) {
			changes = append(changes, "stock")
		}
	} else if item.Quantity != nil {
		changes = append(changes, "stock(would start managing)")
	}

	if item.CategoryCode != nil && *item.CategoryCode != "" {
		changes = append(changes, "category(map check)")
	}

	if len(changes) == 0 {
		row.Action = ActionSkip
	} else {
		row.Action = ActionUpdate
		row.Changes = changes
	}
	return row
}

func priceEqual(a, b string) bool {
	return normalizeDecimal(a) == normalizeDecimal(b)
}

// normalizeDecimal strips the formatting noise ("10", "10.0" and "010.00"
// all normalize to "10") without going through floating point.
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")

	if intPart == "" {
		intPart = "0"
	}

	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if negative && out != "0" {
		out = "-" + out
	}
	return out
}
