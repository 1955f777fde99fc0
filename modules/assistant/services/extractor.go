package services

import (
	"errors"

	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/lexicon"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/assistant/domain/types"
	"github.com/Paulo-Apolinario/smartbiz-ai-managerV1/pkg/textnorm"
)

var (
	ErrEmptyQuery = errors.New("assistant: empty query")
	ErrNoIntent   = errors.New("assistant: no intent")
)

const DefaultLowStock = 5

// Extractor turns a question into an Intent using a fixed lexicon.
type Extractor struct {
	Lexicon         *lexicon.Lexicon
	LowStockDefault int
}

func NewExtractor(lx *lexicon.Lexicon, lowStockDefault int) *Extractor {
	if lowStockDefault <= 0 {
		lowStockDefault = DefaultLowStock
	}
	return &Extractor{Lexicon: lx, LowStockDefault: lowStockDefault}
}

// Extract normalizes message itself. The returned Intent is valid even when
// err is ErrNoIntent.
func (e *Extractor) Extract(message string) (types.Intent, error) {
	q := textnorm.Normalize(message)
	if q == "" {
		return types.Intent{}, ErrEmptyQuery
	}
	lx := e.Lexicon

	in := types.Intent{
		WantsClients:  lx.Wants(q, lexicon.DomainClients),
		WantsProducts: lx.Wants(q, lexicon.DomainProducts),
		WantsOrders:   lx.Wants(q, lexicon.DomainOrders),
		WantsStock:    lx.Wants(q, lexicon.DomainStock),
		WantsKPIs:     lx.Wants(q, lexicon.DomainKPIs),
		WantsList:     lx.WantsList(q),
		WantsRecent:   lx.WantsRecent(q),
		StatusFilter:  lx.Status(q),
		ClientName:    lx.Entity(q, lexicon.EntityClient),
		ProductName:   lx.Entity(q, lexicon.EntityProduct),
	}
	in.StockLimit, in.StockLimitExplicit = e.ExtractStockLimit(q)

	if in.Empty() {
		return in, ErrNoIntent
	}
	return in, nil
}

// ExtractStockLimit returns the threshold named in q, or the default.
func (e *Extractor) ExtractStockLimit(q string) (int, bool) {
	if n, ok := e.Lexicon.StockLimit(textnorm.Normalize(q)); ok {
		return n, true
	}
	return e.LowStockDefault, false
}
