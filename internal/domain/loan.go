package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the lifecycle state of a loan. Transitions are one-way:
// active → repaid or active → defaulted, never reversed.
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanRepaid    LoanStatus = "repaid"
	LoanDefaulted LoanStatus = "defaulted"
)

// Loan es un préstamo desembolsado. Se crea al aprobar, lo muta solo el
// procesamiento de pagos y nunca se borra. RepaidAmount no decrece y nunca
// supera amount·(1+rate).
type Loan struct {
	ID                       string     `json:"id"`
	Borrower                 string     `json:"borrower"`
	Amount                   float64    `json:"amount"`
	InterestRate             float64    `json:"interestRate"`
	CreditScoreAtOrigination int        `json:"creditScoreAtOrigination"`
	Status                   LoanStatus `json:"status"`
	DisbursedAt              time.Time  `json:"disbursedAt"`
	DueAt                    time.Time  `json:"dueAt"`
	RepaidAmount             float64    `json:"repaidAmount"`
	RepaidAt                 *time.Time `json:"repaidAt,omitempty"`
	DefaultedAt              *time.Time `json:"defaultedAt,omitempty"`
}

// TotalOwed is principal plus interest.
func (l Loan) TotalOwed() float64 {
	return l.Amount * (1 + l.InterestRate)
}

// Outstanding is what remains to clear the loan.
func (l Loan) Outstanding() float64 {
	return l.TotalOwed() - l.RepaidAmount
}

// NewLoan creates an active loan with a fresh short id.
func NewLoan(borrower string, amount, interestRate float64, creditScore int, now time.Time, term time.Duration) Loan {
	return Loan{
		ID:                       uuid.New().String()[:8],
		Borrower:                 borrower,
		Amount:                   amount,
		InterestRate:             interestRate,
		CreditScoreAtOrigination: creditScore,
		Status:                   LoanActive,
		DisbursedAt:              now,
		DueAt:                    now.Add(term),
	}
}

// Ledger es la secuencia append-only de préstamos más los totales
// acumulados. El orden de inserción ES el orden de desembolso, y por tanto
// la prioridad de repago (el más viejo cobra primero). Los totales deben
// coincidir siempre con la suma por-préstamo correspondiente.
type Ledger struct {
	Loans          []Loan  `json:"loans"`
	TotalDisbursed float64 `json:"totalDisbursed"`
	TotalRepaid    float64 `json:"totalRepaid"`
	TotalDefaulted float64 `json:"totalDefaulted"`
}

// Add appends a disbursed loan and bumps the disbursed total.
func (lg *Ledger) Add(loan Loan) {
	lg.Loans = append(lg.Loans, loan)
	lg.TotalDisbursed += loan.Amount
}

// ActiveLoans returns the borrower's active loans in disbursal order.
// Empty borrower matches every loan.
func (lg *Ledger) ActiveLoans(borrower string) []Loan {
	var active []Loan
	for _, l := range lg.Loans {
		if l.Status != LoanActive {
			continue
		}
		if borrower != "" && l.Borrower != borrower {
			continue
		}
		active = append(active, l)
	}
	return active
}

// BorrowerLoans returns every loan of the borrower, oldest first.
func (lg *Ledger) BorrowerLoans(borrower string) []Loan {
	var mine []Loan
	for _, l := range lg.Loans {
		if l.Borrower == borrower {
			mine = append(mine, l)
		}
	}
	return mine
}

// LedgerSummary agrupa los números del libro para presentación.
type LedgerSummary struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Repaid         int     `json:"repaid"`
	Defaulted      int     `json:"defaulted"`
	TotalDisbursed float64 `json:"totalDisbursed"`
	TotalRepaid    float64 `json:"totalRepaid"`
	TotalDefaulted float64 `json:"totalDefaulted"`
	ActiveBalance  float64 `json:"activeBalance"`
}

// Summary computes per-status counts and the outstanding active balance.
func (lg *Ledger) Summary() LedgerSummary {
	s := LedgerSummary{
		Total:          len(lg.Loans),
		TotalDisbursed: lg.TotalDisbursed,
		TotalRepaid:    lg.TotalRepaid,
		TotalDefaulted: lg.TotalDefaulted,
	}
	for _, l := range lg.Loans {
		switch l.Status {
		case LoanActive:
			s.Active++
			s.ActiveBalance += l.Amount - l.RepaidAmount
		case LoanRepaid:
			s.Repaid++
		case LoanDefaulted:
			s.Defaulted++
		}
	}
	return s
}
