package syncapp

import (
	"time"

	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ImportPriceList is the external price list header of an import payload
type ImportPriceList struct {
	Code          string                `json:"code" validate:"required,max=50"`
	Name          string                `json:"name" validate:"required,max=200"`
	Type          pricing.PriceListType `json:"type"`
	Currency      valueobject.Currency  `json:"currency" validate:"required,len=3"`
	Priority      int                   `json:"priority"`
	EffectiveFrom time.Time             `json:"effective_from"`
	EffectiveTo   *time.Time            `json:"effective_to,omitempty"`
}

// ImportItem is one externally supplied item row
type ImportItem struct {
	SKU            string                 `json:"sku" validate:"required,max=50"`
	BasePrice      decimal.Decimal        `json:"base_price"`
	ListPrice      decimal.Decimal        `json:"list_price"`
	MinPrice       *decimal.Decimal       `json:"min_price,omitempty"`
	MaxPrice       *decimal.Decimal       `json:"max_price,omitempty"`
	Cost           *decimal.Decimal       `json:"cost,omitempty"`
	QuantityBreaks pricing.QuantityBreaks `json:"quantity_breaks,omitempty"`
	EffectiveFrom  *time.Time             `json:"effective_from,omitempty"`
	EffectiveTo    *time.Time             `json:"effective_to,omitempty"`
}

// ImportPayload is a full external price list import
type ImportPayload struct {
	PriceList ImportPriceList `json:"price_list" validate:"required"`
	Items     []ImportItem    `json:"items" validate:"dive"`
}

// DeltaAction is the operation of one delta entry
type DeltaAction string

const (
	DeltaCreate DeltaAction = "create"
	DeltaUpdate DeltaAction = "update"
	DeltaDelete DeltaAction = "delete"
)

// IsValid checks if the action is valid
func (a DeltaAction) IsValid() bool {
	return a == DeltaCreate || a == DeltaUpdate || a == DeltaDelete
}

// DeltaEntry is one incremental change in a delta batch.
// Data is required for create and update, ignored for delete.
type DeltaEntry struct {
	Action DeltaAction `json:"action" validate:"required"`
	SKU    string      `json:"sku" validate:"required,max=50"`
	Data   *ImportItem `json:"data,omitempty"`
}

// DeltaBatch is an incremental import request
type DeltaBatch struct {
	Entries   []DeltaEntry `json:"entries" validate:"required,dive"`
	PrevToken string       `json:"prev_token,omitempty"`
}
