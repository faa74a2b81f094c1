package notify

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/troyrocket/universe-bank/internal/application/sim"
	"github.com/troyrocket/universe-bank/internal/domain"
)

func newTestLoan() domain.Loan {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.Loan{
		ID:           "ab12cd34",
		Borrower:     "0xabc",
		Amount:       100,
		InterestRate: 0.1145,
		Status:       domain.LoanActive,
		DisbursedAt:  now,
		DueAt:        now.AddDate(0, 0, 30),
	}
}

func TestPrintDecision_Approved(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	loan := newTestLoan()
	c.PrintDecision(domain.Decision{
		Approved:     true,
		Score:        750,
		InterestRate: 0.1145,
		MaxAmount:    409,
	}, &loan)

	out := buf.String()
	assert.Contains(t, out, "LOAN APPROVED")
	assert.Contains(t, out, "ab12cd34")
	assert.Contains(t, out, "$100.00")
	assert.Contains(t, out, "11.45%")
	assert.Contains(t, out, "750")
}

func TestPrintDecision_Denied(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintDecision(domain.Decision{
		Approved:     false,
		Score:        410,
		Reason:       "Credit score 410 below minimum threshold (need 438+)",
		InterestRate: 0.15,
		MaxAmount:    120,
	}, nil)

	out := buf.String()
	assert.Contains(t, out, "LOAN DENIED")
	assert.Contains(t, out, "below minimum threshold")
	assert.Contains(t, out, "$120.00")
}

func TestPrintRepayment(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintRepayment(newTestLoan(), 50, 61.45, false)
	assert.Contains(t, buf.String(), "PARTIAL PAYMENT")
	assert.Contains(t, buf.String(), "$61.45")

	buf.Reset()
	c.PrintRepayment(newTestLoan(), 111.45, 0, true)
	assert.Contains(t, buf.String(), "LOAN FULLY REPAID")
	assert.Contains(t, buf.String(), "model updated")
}

func TestPrintLoans(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintLoans(nil, domain.LedgerSummary{})
	assert.Contains(t, buf.String(), "No loans on record")

	buf.Reset()
	c.PrintLoans([]domain.Loan{newTestLoan()}, domain.LedgerSummary{
		Active:         1,
		TotalDisbursed: 100,
		ActiveBalance:  100,
	})
	out := buf.String()
	assert.Contains(t, out, "ab12cd34")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "$100.00")
}

func TestPrintModel(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintModel(domain.DefaultModel())
	out := buf.String()
	assert.Contains(t, out, "CREDIT MODEL")
	assert.Contains(t, out, "v0")
	assert.Contains(t, out, "Repayment Rate")
	assert.Contains(t, out, "0.2500")
}

func TestPrintSimReport(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	epochs := []sim.EpochMetrics{
		{Epoch: 1, DefaultRate: 0.4, RollingDefaultRate: 0.4, Approvals: 10, Rejections: 2, ModelVersion: 1,
			ArchetypeDefaultRates: map[sim.Archetype]float64{}},
		{Epoch: 2, DefaultRate: 0.2, RollingDefaultRate: 0.3, Approvals: 12, Rejections: 4, ModelVersion: 2,
			ArchetypeDefaultRates: map[sim.Archetype]float64{sim.ArchetypeBad: 0.9}},
	}
	r := sim.Report{
		Seed:            42,
		Epochs:          epochs,
		FinalModel:      domain.DefaultModel(),
		ArchetypeCounts: map[sim.Archetype]int{sim.ArchetypeBad: 10, sim.ArchetypeExcellent: 15},
		Summary: sim.Summary{
			InitialDefaultRate: 0.4,
			FinalDefaultRate:   0.2,
			ImprovementPercent: 50,
			TotalLoanVolume:    12500,
			TotalProfit:        830,
		},
	}

	c.PrintSimReport(r)
	out := buf.String()
	assert.Contains(t, out, "Default Rate Over Time")
	assert.Contains(t, out, "Agent Productivity Growth")
	assert.Contains(t, out, "Default rate improved: 40.0% → 20.0%")
	assert.Contains(t, out, "$12.5K")
	assert.Contains(t, out, "Correctly rejected")
	assert.Contains(t, out, "Learned Model Weights")
}

func TestPrintSimReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	c.PrintSimReport(sim.Report{})
	assert.Contains(t, buf.String(), "No epochs simulated")
}

func TestRenderLineChart(t *testing.T) {
	out := renderLineChart([]float64{10, 20, 30, 25, 15}, chartOptions{
		Title:  "Test Series",
		Height: 4,
	})

	assert.Contains(t, out, "Test Series")
	assert.Contains(t, out, "●")
	// eje Y: height+1 filas de grid
	assert.GreaterOrEqual(t, strings.Count(out, "│"), 5)

	assert.Empty(t, renderLineChart(nil, chartOptions{Title: "x"}))
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "950", abbreviate(950))
	assert.Equal(t, "1.5K", abbreviate(1500))
	assert.Equal(t, "2.3M", abbreviate(2_300_000))
}
