package cashbox

import (
	"sort"
	"time"

	cashboxDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/cashbox"
)

type CashBox struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Order       int       `json:"order"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromDataModel(b *cashboxDatamodel.CashBox) *CashBox {
	return &CashBox{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Order:       b.Order,
		IsDefault:   b.IsDefault,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func ToDataModel(b *CashBox) *cashboxDatamodel.CashBox {
	return &cashboxDatamodel.CashBox{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Order:       b.Order,
		IsDefault:   b.IsDefault,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func FromDataModelSlice(boxes []*cashboxDatamodel.CashBox) []*CashBox {
	result := make([]*CashBox, len(boxes))
	for i, b := range boxes {
		result[i] = FromDataModel(b)
	}
	return result
}

// SortBoxes orders boxes by display order then name.
func SortBoxes(boxes []*CashBox) {
	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].Order != boxes[j].Order {
			return boxes[i].Order < boxes[j].Order
		}
		return boxes[i].Name < boxes[j].Name
	})
}

// DefaultOf returns the flagged default box, or the first box by order when none
// is flagged. Nil when boxes is empty.
func DefaultOf(boxes []*CashBox) *CashBox {
	var first *CashBox
	for _, b := range boxes {
		if b.IsDefault {
			return b
		}
		if first == nil || b.Order < first.Order || (b.Order == first.Order && b.Name < first.Name) {
			first = b
		}
	}
	return first
}
