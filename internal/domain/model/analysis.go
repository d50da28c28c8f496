package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the outcome ladder for a product analysis.
type Verdict string

const (
	// VerdictGreenlight: margin comfortably clears the healthy threshold.
	VerdictGreenlight Verdict = "GREENLIGHT"
	// VerdictGo: workable margin, proceed.
	VerdictGo Verdict = "GO"
	// VerdictFix: margin too thin at the current price; needs repricing or
	// cheaper sourcing.
	VerdictFix Verdict = "FIX"
	// VerdictKill: selling at or below cost.
	VerdictKill Verdict = "KILL"
)

// Analysis is a persisted cost/price evaluation of a product. ProductID is
// zero when the analysis was entered by hand rather than prefilled from a
// fetched product.
type Analysis struct {
	ID            string
	ProductID     int64
	ProductTitle  string
	Cost          decimal.Decimal
	Price         decimal.Decimal
	Profit        decimal.Decimal
	MarginPercent decimal.Decimal
	MarkupPercent decimal.Decimal
	Verdict       Verdict
	Notes         string
	CreatedAt     time.Time
}
