package proration

import (
	"time"

	"github.com/flexprice/payschedule/internal/types"
	"github.com/shopspring/decimal"
)

// ProrationParams holds the input for prorating the lead-in period that
// runs from PeriodStart up to AnchorDate.
type ProrationParams struct {
	// Amount is the regular amount charged for one full period
	Amount types.Money
	// Interval is the regular phase interval, used by the period strategy
	Interval types.Interval
	// PeriodStart is the start of the lead-in period (inclusive)
	PeriodStart time.Time
	// AnchorDate is the date regular billing is aligned to (exclusive)
	AnchorDate time.Time
}

// ProrationResult holds the output of a proration calculation. Amount is
// rounded to the currency precision, Coefficient is Days / BaseDays.
type ProrationResult struct {
	Amount      types.Money             `json:"amount"`
	Days        int                     `json:"days"`
	BaseDays    int                     `json:"base_days"`
	Coefficient decimal.Decimal         `json:"coefficient"`
	Strategy    types.ProrationStrategy `json:"strategy"`
	PeriodStart time.Time               `json:"period_start"`
	AnchorDate  time.Time               `json:"anchor_date"`
}
