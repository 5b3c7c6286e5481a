// Package closure models the register period ("Z period") that collects every
// promoted document between two closes. Exactly one period per register is
// open at a time; the storage layer enforces it with a unique index.
package closure

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is one register period with its running counters and summaries
type Period struct {
	ID             uuid.UUID        `json:"id"`
	UniqueID       string           `json:"unique_id"`
	RegisterID     int              `json:"register_id"`
	StoreID        string           `json:"store_id"`
	BusinessDate   time.Time        `json:"business_date"`
	SequenceNumber int              `json:"sequence_number"`
	BaseCurrency   string           `json:"base_currency"`
	OpenedBy       string           `json:"opened_by"`
	ClosedBy       string           `json:"closed_by,omitempty"`
	StartTime      time.Time        `json:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty"`
	ExpectedCash   decimal.Decimal  `json:"expected_cash"`
	ActualCash     *decimal.Decimal `json:"actual_cash,omitempty"`
	CashVariance   *decimal.Decimal `json:"cash_variance,omitempty"`
	Note           string           `json:"note,omitempty"`
	Counters       Counters         `json:"counters"`
	Summaries      Summaries        `json:"summaries"`
}

type NewPeriodParams struct {
	RegisterID     int
	StoreID        string
	BaseCurrency   string
	OpenedBy       string
	SequenceNumber int
	Now            time.Time
}

// NewPeriod creates an empty open period
func NewPeriod(p NewPeriodParams) *Period {
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	day := BusinessDate(now)
	return &Period{
		ID:             uuid.New(),
		UniqueID:       UniqueID(day, p.SequenceNumber),
		RegisterID:     p.RegisterID,
		StoreID:        p.StoreID,
		BusinessDate:   day,
		SequenceNumber: p.SequenceNumber,
		BaseCurrency:   p.BaseCurrency,
		OpenedBy:       p.OpenedBy,
		StartTime:      now,
		ExpectedCash:   decimal.Zero,
		Counters:       NewCounters(),
		Summaries:      NewSummaries(),
	}
}

// BusinessDate truncates t to its UTC calendar day
func BusinessDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UniqueID formats the register-wide closure identifier
func UniqueID(day time.Time, sequence int) string {
	return fmt.Sprintf("%s-%04d", day.Format("20060102"), sequence)
}

func (p *Period) IsOpen() bool {
	return p.EndTime == nil
}

// Apply adds a document contribution to the running totals
func (p *Period) Apply(c Contribution) error {
	if !p.IsOpen() {
		return ErrPeriodSealed
	}
	p.Counters.add(c.Counters)
	p.Summaries.merge(c.Summaries)
	p.ExpectedCash = p.ExpectedCash.Add(c.ExpectedCash)
	return nil
}

// Seal closes the period. The variance is actual minus expected cash and is
// only set when an actual count was given.
func (p *Period) Seal(closedBy string, actualCash *decimal.Decimal, note string, at time.Time) error {
	if closedBy == "" {
		return ErrClosureNotPossible{Reason: ReasonNoOperator}
	}
	if !p.IsOpen() {
		return ErrPeriodSealed
	}
	end := at.UTC()
	p.EndTime = &end
	p.ClosedBy = closedBy
	p.Note = note
	if actualCash != nil {
		actual := *actualCash
		variance := actual.Sub(p.ExpectedCash)
		p.ActualCash = &actual
		p.CashVariance = &variance
	}
	return nil
}
