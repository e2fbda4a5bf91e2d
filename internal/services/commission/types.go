package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roofline/backend/internal/models"
)

// ConfigSource identifies which precedence tier produced a resolved config
type ConfigSource string

const (
	SourceRowSnapshot      ConfigSource = "row_snapshot"
	SourceLocationOverride ConfigSource = "location_override"
	SourceAssignedPlan     ConfigSource = "assigned_plan"
	SourceRoleDefault      ConfigSource = "role_default"
)

// ResolvedConfig is the effective commission configuration for one
// participant on one lead, after precedence resolution.
type ResolvedConfig struct {
	CommissionType models.CommissionType
	CommissionRate *decimal.Decimal
	FlatAmount     *decimal.Decimal
	PaidWhen       models.PaidWhen
	Source         ConfigSource
}

// RevenueFacts are the read-only billing facts about a lead that the
// eligibility evaluator observes. They are assembled inside the same
// transaction that mutates ledger rows.
type RevenueFacts struct {
	HasInvoice     bool
	InvoiceTotal   decimal.Decimal
	BalanceDue     decimal.Decimal
	DepositCleared bool
	JobCompleted   bool
}

// ComputeAmount derives the commission amount from a snapshot configuration
// and a base revenue figure. Percentage amounts round half-up to cents; flat
// amounts are returned exactly, independent of the base. Custom commissions
// have no formula: the flat amount is used when one was entered, otherwise
// the amount stays zero until an administrator sets it.
func ComputeAmount(commissionType models.CommissionType, rate, flat *decimal.Decimal, base decimal.Decimal) decimal.Decimal {
	switch commissionType {
	case models.CommissionTypeFlatAmount:
		if flat == nil {
			return decimal.Zero
		}
		return flat.Round(2)
	case models.CommissionTypePercentage:
		if rate == nil {
			return decimal.Zero
		}
		return base.Mul(*rate).Div(decimal.NewFromInt(100)).Round(2)
	case models.CommissionTypeCustom:
		if flat != nil {
			return flat.Round(2)
		}
		return decimal.Zero
	}
	return decimal.Zero
}

// Period is a calendar month in UTC, the aggregation window for team-lead
// commissions.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: u.Month()}
}

// ParsePeriod parses a YYYY-MM period key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, err
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// String formats the period as its YYYY-MM storage key.
func (p Period) String() string {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Bounds returns the half-open interval [start, end) covered by the period.
func (p Period) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Previous returns the preceding calendar month.
func (p Period) Previous() Period {
	start, _ := p.Bounds()
	return PeriodOf(start.AddDate(0, -1, 0))
}

// ClosedDeal is one completed job at a location, as seen by the team-lead
// aggregator. BaseAmount is the job's invoice total.
type ClosedDeal struct {
	LeadID     uuid.UUID
	SalesRepID *uuid.UUID
	BaseAmount decimal.Decimal
	ClosedAt   time.Time
}
