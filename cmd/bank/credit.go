package main

import (
	"github.com/spf13/cobra"
)

var creditBorrower string

var creditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Credit scoring system",
}

var creditScoreCmd = &cobra.Command{
	Use:   "score",
	Short: "View your credit score",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := borrowerAddress(creditBorrower)
		if err != nil {
			return err
		}

		store, svc, err := openBank()
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := svc.Score(cmd.Context(), addr)
		if err != nil {
			return err
		}

		console().PrintCreditReport(report.Score, report.Features, report.MaxEligible, report.InterestRate, report.MinScore)
		return nil
	},
}

var creditModelCmd = &cobra.Command{
	Use:   "model",
	Short: "View credit model parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, svc, err := openBank()
		if err != nil {
			return err
		}
		defer store.Close()

		model, err := svc.Model(cmd.Context())
		if err != nil {
			return err
		}

		console().PrintModel(model)
		return nil
	},
}

func init() {
	creditCmd.PersistentFlags().StringVar(&creditBorrower, "borrower", "", "borrower address (overrides config)")
	creditCmd.AddCommand(creditScoreCmd)
	creditCmd.AddCommand(creditModelCmd)
}
