package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"propertyreport/config"
	"propertyreport/internal/finance"
	"propertyreport/internal/report"
)

func newMetricsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "metrics <input.yaml>",
		Short:   "Print the investment metrics of an input file",
		Example: `  reportgen metrics sample.yaml --json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := config.LoadInputFile(args[0])
			if err != nil {
				return err
			}
			m := finance.ComputeMetrics(in.Investment)
			if m.Degraded {
				a.logger.WithField("fields", m.ErrorStrings()).Warn("Investment metrics degraded to zero")
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Metrics finance.Metrics `json:"metrics"`
					Errors  []string        `json:"errors"`
				}{m, m.ErrorStrings()})
			}
			return printMetrics(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// printMetrics renders the metrics in the order they appear in the report.
func printMetrics(w io.Writer, m finance.Metrics) error {
	rows := [][]string{
		{"Purchase Price", report.FormatGBP(m.Inputs.PurchasePrice)},
		{"Deposit", report.FormatGBP(m.DepositAmount)},
		{"Monthly Rent", report.FormatGBP(m.Inputs.MonthlyRent)},
		{"Annual Rent", report.FormatGBP(m.AnnualRent)},
		{"Rental Yield", report.FormatPercent(m.RentalYieldPct)},
		{"Total Purchase Costs", report.FormatGBP(m.TotalPurchaseCosts)},
		{"Total Investment", report.FormatGBP(m.TotalInvestment)},
		{"Mortgage", report.FormatGBP(m.MortgagePrincipal)},
		{"Annual Mortgage Interest", report.FormatGBP(m.AnnualMortgageInterest)},
		{"Total Annual Expenses", report.FormatGBP(m.TotalAnnualExpenses)},
		{"Annual Profit", report.FormatGBP(m.AnnualProfit)},
		{"Monthly Profit", report.FormatGBP(m.MonthlyProfit)},
		{"ROI", report.FormatPercent(m.ROIPct)},
	}

	tw := tablewriter.NewWriter(w)
	tw.Header("Metric", "Value")
	for _, r := range rows {
		if err := tw.Append(r); err != nil {
			return err
		}
	}
	if err := tw.Render(); err != nil {
		return err
	}
	for _, e := range m.ErrorStrings() {
		fmt.Fprintf(w, "warning: %s\n", e)
	}
	return nil
}
