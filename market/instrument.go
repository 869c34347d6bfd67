// market/instrument.go
package market

import (
	"fmt"
	"time"
)

// Instrument is a fixed-rate bullet bond. Rates are decimals (0.05 = 5%).
type Instrument struct {
	ID              string
	Issuer          string
	FaceValue       float64
	CouponRate      float64
	CouponFrequency int
	IssueDate       time.Time
	MaturityDate    time.Time

	// LastPrice is the last observed clean price in the same units as
	// FaceValue. Zero means unknown.
	LastPrice float64
}

// Validate checks the fields needed to build a cash-flow schedule.
func (i Instrument) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("instrument id is required")
	}
	if i.FaceValue <= 0 {
		return fmt.Errorf("instrument %s: face_value must be positive", i.ID)
	}
	if i.CouponRate < 0 {
		return fmt.Errorf("instrument %s: coupon_rate must not be negative", i.ID)
	}
	switch i.CouponFrequency {
	case 1, 2, 4, 12:
	default:
		return fmt.Errorf("instrument %s: coupon_frequency %d not one of 1, 2, 4, 12", i.ID, i.CouponFrequency)
	}
	if i.MaturityDate.IsZero() {
		return fmt.Errorf("instrument %s: maturity_date is required", i.ID)
	}
	if !i.IssueDate.IsZero() && !i.IssueDate.Before(i.MaturityDate) {
		return fmt.Errorf("instrument %s: issue_date must be before maturity_date", i.ID)
	}
	if i.LastPrice < 0 {
		return fmt.Errorf("instrument %s: last_price must not be negative", i.ID)
	}
	return nil
}

// Position is an instrument held in a portfolio together with the curve it
// is priced against.
type Position struct {
	Instrument  Instrument
	Ref         CurveRef
	Weight      float64
	MarketValue float64
	Quantity    float64
}

// Portfolio is the read-only book handed to the risk engine.
type Portfolio struct {
	AsOf      time.Time
	TotalFund float64
	Positions []Position
}

// Curves lists the distinct curve names referenced by the portfolio in
// position order.
func (p *Portfolio) Curves() []string {
	seen := map[string]bool{}
	var out []string
	for _, pos := range p.Positions {
		if !seen[pos.Ref.Curve] {
			seen[pos.Ref.Curve] = true
			out = append(out, pos.Ref.Curve)
		}
	}
	return out
}
