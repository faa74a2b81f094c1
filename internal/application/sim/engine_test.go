package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSim(t *testing.T, agents, epochs int, seed int64) *Report {
	t.Helper()
	report, err := New(Config{Agents: agents, Epochs: epochs, Seed: seed}).Run(context.Background(), nil)
	require.NoError(t, err)
	return report
}

func TestRun_Deterministic(t *testing.T) {
	// Misma seed → métricas y reporte idénticos, byte a byte
	a := runSim(t, 50, 10, 42)
	b := runSim(t, 50, 10, 42)
	assert.Equal(t, a, b)

	c := runSim(t, 50, 10, 43)
	assert.NotEqual(t, a.Epochs, c.Epochs)
}

func TestRun_Seed42Scenario(t *testing.T) {
	report := runSim(t, 100, 24, 42)

	assert.Equal(t, 15, report.ArchetypeCounts[ArchetypeExcellent])
	assert.Equal(t, 25, report.ArchetypeCounts[ArchetypeGood])
	assert.Equal(t, 30, report.ArchetypeCounts[ArchetypeAverage])
	assert.Equal(t, 20, report.ArchetypeCounts[ArchetypeRisky])
	assert.Equal(t, 10, report.ArchetypeCounts[ArchetypeBad])

	require.Len(t, report.Epochs, 24)
	first := report.Epochs[0]
	// Nada desembolsado antes de la época 1 → nada puede resolver en ella
	assert.Zero(t, first.Repayments)
	assert.Zero(t, first.Defaults)
	assert.LessOrEqual(t, first.Applications, 100)
	assert.Positive(t, first.Applications)
}

func TestRun_EpochInvariants(t *testing.T) {
	report := runSim(t, 80, 20, 7)

	var cumulative float64
	for i, m := range report.Epochs {
		assert.Equal(t, i+1, m.Epoch)
		assert.Equal(t, m.Applications, m.Approvals+m.Rejections)
		assert.GreaterOrEqual(t, m.RollingDefaultRate, 0.0)
		assert.LessOrEqual(t, m.RollingDefaultRate, 1.0)
		assert.GreaterOrEqual(t, m.CumulativeDefaultRate, 0.0)
		assert.LessOrEqual(t, m.CumulativeDefaultRate, 1.0)
		assert.GreaterOrEqual(t, m.AvgCreditScore, 300)
		assert.LessOrEqual(t, m.AvgCreditScore, 850)

		cumulative += m.NetProfit
		assert.InDelta(t, cumulative, m.CumulativeProfit, 1e-9)
	}
}

func TestRun_ModelLearns(t *testing.T) {
	report := runSim(t, 100, 24, 42)

	// Exactamente una versión por cada época que resolvió préstamos
	epochsWithOutcomes := 0
	samples := 0
	for _, m := range report.Epochs {
		if m.Repayments+m.Defaults > 0 {
			epochsWithOutcomes++
			samples += m.Repayments + m.Defaults
		}
	}
	final := report.FinalModel
	assert.Equal(t, epochsWithOutcomes, final.Version)
	assert.Equal(t, samples, final.TrainingSamples)
	assert.Positive(t, final.TrainingSamples)

	// El threshold adaptativo nunca sale de sus topes
	assert.GreaterOrEqual(t, final.Threshold, 0.25)
	assert.LessOrEqual(t, final.Threshold, 0.72)
}

func TestRun_SummaryAggregates(t *testing.T) {
	report := runSim(t, 60, 15, 11)

	var volume float64
	for _, m := range report.Epochs {
		volume += m.TotalDisbursed
	}
	assert.InDelta(t, volume, report.Summary.TotalLoanVolume, 1e-9)
	assert.InDelta(t, report.Epochs[len(report.Epochs)-1].CumulativeProfit,
		report.Summary.TotalProfit, 1e-9)

	// Tasas inicial/final = rolling del primer/último epoch con datos
	for _, m := range report.Epochs {
		if m.Repayments+m.Defaults > 0 {
			assert.Equal(t, m.RollingDefaultRate, report.Summary.InitialDefaultRate)
			break
		}
	}
}

func TestRun_ProgressCallback(t *testing.T) {
	var calls int
	var lastProgress float64
	_, err := New(Config{Agents: 20, Epochs: 8, Seed: 1}).Run(context.Background(),
		func(m EpochMetrics, progress float64) {
			calls++
			assert.Equal(t, calls, m.Epoch)
			assert.Greater(t, progress, lastProgress)
			lastProgress = progress
		})
	require.NoError(t, err)
	assert.Equal(t, 8, calls)
	assert.Equal(t, 1.0, lastProgress)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Agents: 10, Epochs: 5, Seed: 1}).Run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MaxThreeActiveLoansPerAgent(t *testing.T) {
	// Con plazo de 1 época los préstamos no se acumulan más allá del
	// tope: ningún agente pasa de 3 activos tras cualquier época.
	report := runSim(t, 40, 12, 5)
	for _, m := range report.Epochs {
		// Cota gruesa: como mucho 1 solicitud por agente y época
		assert.LessOrEqual(t, m.Applications, 40)
	}
}

func TestRollingWindow(t *testing.T) {
	var w rollingWindow
	w.add(1, 10)
	assert.InDelta(t, 0.1, w.rate(), 1e-9)

	// La ventana retiene solo los últimos 5 epochs
	for i := 0; i < 5; i++ {
		w.add(5, 10)
	}
	assert.InDelta(t, 0.5, w.rate(), 1e-9)

	w.add(0, 0)
	assert.InDelta(t, 20.0/40.0, w.rate(), 1e-9)
}

func TestRollingWindow_EmptyResolved(t *testing.T) {
	var w rollingWindow
	assert.Equal(t, 0.0, w.rate())
	w.add(0, 0)
	assert.Equal(t, 0.0, w.rate())
}
