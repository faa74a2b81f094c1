package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFeatures_ColdStart(t *testing.T) {
	// Borrower nuevo: sin historial resuelto → prior neutro 0.5
	f := ExtractFeatures(BorrowerSignals{})
	assert.Equal(t, 0.5, f.RepaymentRate)
	assert.Equal(t, 0.0, f.TransactionCount)
	assert.Equal(t, 0.0, f.AvgLoanSize)
	assert.Equal(t, 0.0, f.IdentityRegistered)
}

func TestExtractFeatures_SingleDefault(t *testing.T) {
	f := ExtractFeatures(BorrowerSignals{RepaymentHistory: []int{0}})
	assert.Equal(t, 0.0, f.RepaymentRate)
}

func TestExtractFeatures_MixedHistory(t *testing.T) {
	f := ExtractFeatures(BorrowerSignals{RepaymentHistory: []int{1, 1, 0}})
	assert.InDelta(t, 2.0/3.0, f.RepaymentRate, 1e-9)
}

func TestExtractFeatures_Clamping(t *testing.T) {
	f := ExtractFeatures(BorrowerSignals{
		TransactionCount: 250,   // 250/100 → clamp 1
		PoolDeposits:     50000, // 50000/10000 → clamp 1
		AccountAge:       99,    // 99/20 → clamp 1
	})
	assert.Equal(t, 1.0, f.TransactionCount)
	assert.Equal(t, 1.0, f.PoolDeposits)
	assert.Equal(t, 1.0, f.AccountAge)
}

func TestExtractFeatures_Ratios(t *testing.T) {
	f := ExtractFeatures(BorrowerSignals{
		TransactionCount:   50,
		PoolDeposits:       2500,
		IdentityRegistered: true,
		AccountAge:         5,
	})
	assert.Equal(t, 0.5, f.TransactionCount)
	assert.Equal(t, 0.25, f.PoolDeposits)
	assert.Equal(t, 1.0, f.IdentityRegistered)
	assert.Equal(t, 0.25, f.AccountAge)
}

func TestExtractFeatures_AvgLoanSize(t *testing.T) {
	// 10000 prestados en 2 préstamos → media 5000 → 5000/5000 = 1
	f := ExtractFeatures(BorrowerSignals{TotalBorrowed: 10000, LoanCount: 2})
	assert.Equal(t, 1.0, f.AvgLoanSize)

	// 1000 en 4 → media 250 → 250/5000 = 0.05
	f = ExtractFeatures(BorrowerSignals{TotalBorrowed: 1000, LoanCount: 4})
	assert.Equal(t, 0.05, f.AvgLoanSize)
}

func TestExtractFeatures_AllInUnitRange(t *testing.T) {
	cases := []BorrowerSignals{
		{},
		{TransactionCount: 1 << 20, PoolDeposits: 1e12, AccountAge: 1e6},
		{RepaymentHistory: []int{1, 1, 1, 1}, TotalBorrowed: 1e9, LoanCount: 1},
		{IdentityRegistered: true, AccountAge: 20},
	}
	for _, raw := range cases {
		f := ExtractFeatures(raw)
		for _, v := range []float64{
			f.TransactionCount, f.RepaymentRate, f.PoolDeposits,
			f.IdentityRegistered, f.AccountAge, f.AvgLoanSize,
		} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}
