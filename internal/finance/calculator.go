// Package finance derives the investment metrics shown in the report from
// the raw investment fields.
package finance

import (
	"errors"

	"propertyreport/internal/models"
	"propertyreport/internal/normalize"
)

var (
	// ErrZeroPurchasePrice degrades the metrics: the rental yield divides by it.
	ErrZeroPurchasePrice = errors.New("purchase price is zero")

	// ErrZeroInvestment degrades the metrics: the ROI divides by it.
	ErrZeroInvestment = errors.New("total investment is zero")
)

// Inputs are the normalized investment fields.
type Inputs struct {
	PurchasePrice  float64 `json:"purchase_price"`
	DepositPercent float64 `json:"deposit_percent"`
	MonthlyRent    float64 `json:"monthly_rent"`
	MortgageRate   float64 `json:"mortgage_rate"`
	CouncilTax     float64 `json:"council_tax"`
	Repairs        float64 `json:"repairs_maintenance"`
	Utilities      float64 `json:"utilities"`
	Water          float64 `json:"water"`
	BroadbandTV    float64 `json:"broadband_tv"`
	Insurance      float64 `json:"insurance"`
	StampDuty      float64 `json:"stamp_duty"`
	Survey         float64 `json:"survey_cost"`
	LegalFees      float64 `json:"legal_fees"`
	LoanSetup      float64 `json:"loan_setup"`
}

// Metrics is the derived financial picture. It is never stored; it is
// recomputed from InvestmentInputs on every generation.
type Metrics struct {
	Inputs Inputs `json:"inputs"`

	DepositAmount          float64 `json:"deposit_amount"`
	AnnualRent             float64 `json:"annual_rent"`
	RentalYieldPct         float64 `json:"rental_yield_pct"`
	TotalPurchaseCosts     float64 `json:"total_purchase_costs"`
	TotalInvestment        float64 `json:"total_investment"`
	MortgagePrincipal      float64 `json:"mortgage_principal"`
	AnnualMortgageInterest float64 `json:"annual_mortgage_interest"`
	TotalAnnualExpenses    float64 `json:"total_annual_expenses"`
	AnnualProfit           float64 `json:"annual_profit"`
	MonthlyProfit          float64 `json:"monthly_profit"`
	ROIPct                 float64 `json:"roi_pct"`

	// Degraded is set when a field failed to parse or a ratio had a zero
	// denominator, and every value above was replaced by zero. Errors lists
	// the offending fields or denominators.
	Degraded bool    `json:"degraded"`
	Errors   []error `json:"-"`
}

type field struct {
	name    string
	raw     string
	dst     *float64
	percent bool
}

// Normalize parses every investment field. All fields are required: the
// returned slice holds one *normalize.ParseError per field that failed, and
// the failed fields are left at zero.
func Normalize(in models.InvestmentInputs) (Inputs, []error) {
	var out Inputs
	fields := []field{
		{"purchase_price", in.PurchasePrice, &out.PurchasePrice, false},
		{"deposit_percent", in.DepositPercent, &out.DepositPercent, true},
		{"monthly_rent", in.MonthlyRent, &out.MonthlyRent, false},
		{"mortgage_rate", in.MortgageRate, &out.MortgageRate, true},
		{"council_tax", in.CouncilTax, &out.CouncilTax, false},
		{"repairs_maintenance", in.Repairs, &out.Repairs, false},
		{"utilities", in.Utilities, &out.Utilities, false},
		{"water", in.Water, &out.Water, false},
		{"broadband_tv", in.BroadbandTV, &out.BroadbandTV, false},
		{"insurance", in.Insurance, &out.Insurance, false},
		{"stamp_duty", in.StampDuty, &out.StampDuty, false},
		{"survey_cost", in.Survey, &out.Survey, false},
		{"legal_fees", in.LegalFees, &out.LegalFees, false},
		{"loan_setup", in.LoanSetup, &out.LoanSetup, false},
	}

	var errs []error
	for _, f := range fields {
		var (
			v   float64
			err error
		)
		if f.percent {
			v, err = normalize.ParsePercent(f.raw)
		} else {
			v, err = normalize.ParseCurrency(f.raw)
		}
		if err != nil {
			errs = append(errs, normalize.Field(f.name, err))
			continue
		}
		*f.dst = v
	}
	return out, errs
}

// ComputeMetrics normalizes the inputs and derives the metrics. If any
// field fails to parse, or a ratio would divide by zero, the whole block
// degrades to zero rather than showing a partially correct picture.
func ComputeMetrics(in models.InvestmentInputs) Metrics {
	inputs, errs := Normalize(in)
	if len(errs) > 0 {
		return Metrics{Degraded: true, Errors: errs}
	}
	return Compute(inputs)
}

// Compute derives the metrics from already normalized inputs. It is pure:
// identical inputs always produce identical output. A zero purchase price or
// total investment yields the all-zero degraded block.
func Compute(in Inputs) Metrics {
	if in.PurchasePrice == 0 {
		return Metrics{Degraded: true, Errors: []error{ErrZeroPurchasePrice}}
	}
	m := Metrics{Inputs: in}

	m.DepositAmount = in.PurchasePrice * in.DepositPercent / 100
	m.AnnualRent = in.MonthlyRent * 12
	m.RentalYieldPct = m.AnnualRent / in.PurchasePrice * 100

	m.TotalPurchaseCosts = in.StampDuty + in.Survey + in.LegalFees + in.LoanSetup
	m.TotalInvestment = m.DepositAmount + m.TotalPurchaseCosts

	// interest-only mortgage
	m.MortgagePrincipal = in.PurchasePrice - m.DepositAmount
	m.AnnualMortgageInterest = m.MortgagePrincipal * in.MortgageRate / 100

	m.TotalAnnualExpenses = m.AnnualMortgageInterest +
		in.CouncilTax + in.Repairs + in.Utilities + in.Water + in.BroadbandTV + in.Insurance
	m.AnnualProfit = m.AnnualRent - m.TotalAnnualExpenses
	m.MonthlyProfit = m.AnnualProfit / 12
	if m.TotalInvestment == 0 {
		return Metrics{Degraded: true, Errors: []error{ErrZeroInvestment}}
	}
	m.ROIPct = m.AnnualProfit / m.TotalInvestment * 100

	return m
}

// ErrorStrings returns the degrade reasons as text, for logs and JSON.
func (m Metrics) ErrorStrings() []string {
	out := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		out = append(out, err.Error())
	}
	return out
}
