package types

import (
	"github.com/shopspring/decimal"

	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

// Intent is what the assistant understood from one question.
type Intent struct {
	WantsClients  bool
	WantsProducts bool
	WantsOrders   bool
	WantsStock    bool
	WantsKPIs     bool
	WantsList     bool
	WantsRecent   bool

	StatusFilter       salestypes.Status
	StockLimit         int
	StockLimitExplicit bool

	ClientName  string
	ProductName string
}

// Empty reports whether nothing actionable was recognized.
func (i Intent) Empty() bool {
	return !i.WantsClients && !i.WantsProducts && !i.WantsOrders && !i.WantsStock && !i.WantsKPIs &&
		i.ClientName == "" && i.ProductName == ""
}

type Answer struct {
	Answer string `json:"answer"`
}

type OrderCounts struct {
	Total     int
	Pending   int
	Completed int
	Cancelled int
}

// OrderSummary is one line of an order listing.
type OrderSummary struct {
	ID          string
	ClientName  string
	ClientEmail string
	Status      salestypes.Status
	Total       decimal.Decimal
}
