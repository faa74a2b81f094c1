package domain

// BorrowerSignals are the raw on-chain observables a feature extraction
// starts from. Counters are non-negative; RepaymentHistory holds one entry
// per *resolved* loan, oldest first: 1 = repaid, 0 = defaulted. Active
// loans never appear in the history.
type BorrowerSignals struct {
	TransactionCount   int
	RepaymentHistory   []int
	PoolDeposits       float64
	IdentityRegistered bool
	AccountAge         float64
	TotalBorrowed      float64
	LoanCount          int
}

// Features son las seis señales normalizadas a [0,1] que consume el scorer.
// Derivadas, nunca persistidas — se recalculan en cada scoring.
type Features struct {
	TransactionCount   float64 `json:"transactionCount"`
	RepaymentRate      float64 `json:"repaymentRate"`
	PoolDeposits       float64 `json:"poolDeposits"`
	IdentityRegistered float64 `json:"identityRegistered"`
	AccountAge         float64 `json:"accountAge"`
	AvgLoanSize        float64 `json:"avgLoanSize"`
}

// ExtractFeatures normalizes raw borrower signals into 0-1 features.
// Inputs are clamped, never rejected. A borrower with zero resolved loans
// gets the neutral 0.5 repayment prior — without it, cold-start identities
// could never bootstrap a score.
func ExtractFeatures(raw BorrowerSignals) Features {
	repaid := 0
	for _, r := range raw.RepaymentHistory {
		if r == 1 {
			repaid++
		}
	}
	total := len(raw.RepaymentHistory)

	repaymentRate := 0.5
	if total > 0 {
		repaymentRate = float64(repaid) / float64(total)
	}

	avgLoanSize := 0.0
	if raw.LoanCount > 0 {
		avgLoanSize = clamp01((raw.TotalBorrowed / float64(raw.LoanCount)) / 5000)
	}

	identity := 0.0
	if raw.IdentityRegistered {
		identity = 1.0
	}

	return Features{
		TransactionCount:   clamp01(float64(raw.TransactionCount) / 100),
		RepaymentRate:      repaymentRate,
		PoolDeposits:       clamp01(raw.PoolDeposits / 10000),
		IdentityRegistered: identity,
		AccountAge:         clamp01(raw.AccountAge / 20),
		AvgLoanSize:        avgLoanSize,
	}
}

// clamp01 recorta un valor al rango [0,1] por arriba.
// Los ratios de entrada nunca son negativos, solo pueden pasarse de 1.
func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
