package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var loanBorrower string

var loanCmd = &cobra.Command{
	Use:   "loan",
	Short: "Lending system",
}

var loanApplyCmd = &cobra.Command{
	Use:   "apply <amount>",
	Short: "Apply for a USDC loan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		addr, err := borrowerAddress(loanBorrower)
		if err != nil {
			return err
		}

		store, svc, err := openBank()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := svc.ApplyForLoan(cmd.Context(), addr, amount)
		if err != nil {
			return err
		}

		console().PrintDecision(result.Decision, result.Loan)
		return nil
	},
}

var loanRepayCmd = &cobra.Command{
	Use:   "repay <amount>",
	Short: "Repay a loan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		addr, err := borrowerAddress(loanBorrower)
		if err != nil {
			return err
		}

		store, svc, err := openBank()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := svc.RepayLoan(cmd.Context(), addr, amount)
		if err != nil {
			return err
		}

		console().PrintRepayment(result.Loan, result.AmountApplied, result.RemainingBalance, result.FullyRepaid)
		return nil
	},
}

var loanStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "View active loans",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := borrowerAddress(loanBorrower)
		if err != nil {
			return err
		}

		store, svc, err := openBank()
		if err != nil {
			return err
		}
		defer store.Close()

		ledger, err := svc.Ledger(cmd.Context())
		if err != nil {
			return err
		}

		console().PrintLoans(ledger.ActiveLoans(addr), ledger.Summary())
		return nil
	},
}

var loanListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all loans",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, svc, err := openBank()
		if err != nil {
			return err
		}
		defer store.Close()

		ledger, err := svc.Ledger(cmd.Context())
		if err != nil {
			return err
		}

		console().PrintLoans(ledger.Loans, ledger.Summary())
		return nil
	},
}

func init() {
	loanCmd.PersistentFlags().StringVar(&loanBorrower, "borrower", "", "borrower address (overrides config)")
	loanCmd.AddCommand(loanApplyCmd)
	loanCmd.AddCommand(loanRepayCmd)
	loanCmd.AddCommand(loanStatusCmd)
	loanCmd.AddCommand(loanListCmd)
}
