package sim

// engine.go — el loop de épocas de la simulación de crédito.
//
// Cada época pasa por fases fijas: solicitudes → resolución → entrenamiento
// → threshold adaptativo → métricas. Toda la aleatoriedad sale de UN solo
// generador sembrado, consumido en un orden de llamada fijo — reordenar
// cualquier draw rompe la reproducibilidad byte a byte que los tests exigen.

import (
	"context"
	"log/slog"
	"math"
	"math/rand"

	"github.com/troyrocket/universe-bank/internal/domain"
)

const (
	maxActiveLoansPerAgent = 3
	minRequest             = 10
	maxRequest             = 250
	requestScale           = 0.4 // fracción del máximo posible que se pide
)

// Config controla una corrida de simulación.
type Config struct {
	Agents int
	Epochs int
	Seed   int64
}

// ProgressFunc recibe las métricas de cada época y la fracción completada.
type ProgressFunc func(m EpochMetrics, progress float64)

// Engine runs the multi-agent lending simulation. Single-threaded, strictly
// sequential; cancellation takes effect only at epoch boundaries.
type Engine struct {
	cfg Config
}

// New crea un engine de simulación.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run executes the full simulation and returns the final report. onEpoch,
// if non-nil, is invoked after every epoch with its metrics.
func (e *Engine) Run(ctx context.Context, onEpoch ProgressFunc) (*Report, error) {
	rng := rand.New(rand.NewSource(e.cfg.Seed))
	agents := GenerateAgents(e.cfg.Agents, rng)
	model := domain.DefaultModel()

	slog.Debug("simulation started",
		"agents", e.cfg.Agents,
		"epochs", e.cfg.Epochs,
		"seed", e.cfg.Seed,
	)

	epochs := make([]EpochMetrics, 0, e.cfg.Epochs)
	var window rollingWindow
	var cumulativeProfit float64
	var cumulativeDefaults, cumulativeResolved int
	initialProductivity := meanProductivity(agents)

	for epoch := 1; epoch <= e.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var outcomes []domain.Outcome
		var applications, approvals, rejections int
		var repayments, defaults int
		var epochDisbursed, epochRepaid, epochDefaultLoss float64

		for _, a := range agents {
			a.AccountAge = float64(epoch)
		}

		// Fase 1: solicitudes. El draw de apetito se consume SIEMPRE,
		// incluso si el tope de 3 préstamos activos descarta al agente
		// después — el orden de draws es contrato.
		for _, a := range agents {
			if rng.Float64() > a.LoanAppetite {
				continue
			}
			if len(a.ActiveLoans) >= maxActiveLoansPerAgent {
				continue
			}

			applications++

			features := domain.ExtractFeatures(a.Signals())
			score := domain.CalculateCreditScore(features, model)
			maxPossible := float64(score-domain.ScoreFloor) / domain.ScoreSpan * model.MaxLoanMultiplier
			request := clampRequest(math.Round(a.RequestMultiplier * maxPossible * requestScale))

			decision := domain.EvaluateLoanApplication(score, request, model)
			if decision.Approved {
				approvals++
				a.ActiveLoans = append(a.ActiveLoans, SimLoan{
					Amount:       request,
					InterestRate: decision.InterestRate,
					DisbursedAt:  epoch,
					Status:       domain.LoanActive,
				})
				a.Balance += request
				a.TotalBorrowed += request
				a.LoanCount++
				epochDisbursed += request
			} else {
				rejections++
			}
		}

		// Fase 2: resolución. Un préstamo vence una época después de su
		// desembolso — nunca en la misma. El resultado se sortea contra la
		// probabilidad oculta del agente, indiferente a lo que crea el
		// modelo.
		for _, a := range agents {
			var stillActive []SimLoan

			for _, loan := range a.ActiveLoans {
				if epoch-loan.DisbursedAt < 1 {
					stillActive = append(stillActive, loan)
					continue
				}

				features := domain.ExtractFeatures(a.Signals())
				willRepay := rng.Float64() < a.TrueRepayProbability

				if willRepay {
					interest := loan.Amount * loan.InterestRate
					totalOwed := loan.Amount + interest
					a.RepaymentHistory = append(a.RepaymentHistory, 1)
					a.TransactionCount += 2
					a.TotalRepaidAmount += totalOwed
					a.Productivity += loan.Amount * 0.2
					a.Balance -= totalOwed
					repayments++
					epochRepaid += interest // solo el interés cuenta como ingreso
					outcomes = append(outcomes, domain.Outcome{Features: features, Repaid: true})
				} else {
					a.RepaymentHistory = append(a.RepaymentHistory, 0)
					defaults++
					epochDefaultLoss += loan.Amount // principal perdido
					outcomes = append(outcomes, domain.Outcome{Features: features, Repaid: false})
				}
			}

			a.ActiveLoans = stillActive

			// Drift orgánico: sin esto las features de los agentes
			// inactivos no evolucionarían nunca.
			a.TransactionCount += int(rng.Float64() * 3)
			if rng.Float64() < 0.15 && a.Balance > 100 {
				deposit := math.Round(a.Balance * 0.15)
				a.PoolDeposits += deposit
				a.Balance -= deposit
			}
		}

		// Fase 3: auto-mejora — un solo update agregado por época, con los
		// outcomes en orden de generación.
		if len(outcomes) > 0 {
			model = domain.UpdateModel(model, outcomes)
		}

		resolved := repayments + defaults
		window.add(defaults, resolved)
		cumulativeDefaults += defaults
		cumulativeResolved += resolved

		rollingRate := window.rate()
		currentRate := 0.0
		if resolved > 0 {
			currentRate = float64(defaults) / float64(resolved)
		}

		// Threshold adaptativo: el gradiente solo reacciona lento a una
		// deriva sistémica; esto es la válvula rápida.
		switch {
		case rollingRate > 0.25:
			model.Threshold = math.Min(model.Threshold+0.025, 0.72)
		case rollingRate > 0.15:
			model.Threshold = math.Min(model.Threshold+0.01, 0.65)
		case rollingRate < 0.08 && epoch > 5:
			model.Threshold = math.Max(model.Threshold-0.005, 0.38)
		}

		var totalScore int
		for _, a := range agents {
			totalScore += domain.CalculateCreditScore(domain.ExtractFeatures(a.Signals()), model)
		}

		netProfit := epochRepaid - epochDefaultLoss
		cumulativeProfit += netProfit

		cumulativeRate := 0.0
		if cumulativeResolved > 0 {
			cumulativeRate = float64(cumulativeDefaults) / float64(cumulativeResolved)
		}
		approvalRate := 0.0
		if applications > 0 {
			approvalRate = float64(approvals) / float64(applications)
		}

		m := EpochMetrics{
			Epoch:                 epoch,
			Applications:          applications,
			Approvals:             approvals,
			Rejections:            rejections,
			ApprovalRate:          approvalRate,
			Repayments:            repayments,
			Defaults:              defaults,
			DefaultRate:           currentRate,
			RollingDefaultRate:    rollingRate,
			CumulativeDefaultRate: cumulativeRate,
			TotalDisbursed:        epochDisbursed,
			TotalRepaid:           epochRepaid,
			TotalDefaultLoss:      epochDefaultLoss,
			NetProfit:             netProfit,
			CumulativeProfit:      cumulativeProfit,
			ModelVersion:          model.Version,
			AvgCreditScore:        int(math.Round(float64(totalScore) / float64(len(agents)))),
			AgentProductivityAvg:  meanProductivity(agents),
			ArchetypeDefaultRates: archetypeDefaultRates(agents),
		}
		epochs = append(epochs, m)

		if onEpoch != nil {
			onEpoch(m, float64(epoch)/float64(e.cfg.Epochs))
		}
	}

	report := &Report{
		Seed:            e.cfg.Seed,
		AgentCount:      e.cfg.Agents,
		EpochCount:      e.cfg.Epochs,
		Epochs:          epochs,
		FinalModel:      model,
		ArchetypeCounts: ArchetypeCounts(agents),
		Summary:         buildSummary(epochs, agents, cumulativeProfit, initialProductivity),
	}

	slog.Debug("simulation finished",
		"final_default_rate", report.Summary.FinalDefaultRate,
		"total_profit", report.Summary.TotalProfit,
		"model_version", model.Version,
	)
	return report, nil
}

// buildSummary agrega la corrida: rolling rate del primer y último epoch
// con resoluciones como tasas inicial/final.
func buildSummary(epochs []EpochMetrics, agents []*Agent, cumulativeProfit, initialProductivity float64) Summary {
	var first, last *EpochMetrics
	for i := range epochs {
		if epochs[i].Repayments+epochs[i].Defaults == 0 {
			continue
		}
		if first == nil {
			first = &epochs[i]
		}
		last = &epochs[i]
	}

	var initialRate, finalRate float64
	if first != nil {
		initialRate = first.RollingDefaultRate
	}
	if last != nil {
		finalRate = last.RollingDefaultRate
	}

	improvement := 0.0
	if initialRate > 0 {
		improvement = (initialRate - finalRate) / initialRate * 100
	}

	var totalVolume float64
	for _, m := range epochs {
		totalVolume += m.TotalDisbursed
	}

	growth := 0.0
	if initialProductivity > 0 {
		growth = (meanProductivity(agents) - initialProductivity) / initialProductivity * 100
	}

	return Summary{
		InitialDefaultRate:    initialRate,
		FinalDefaultRate:      finalRate,
		ImprovementPercent:    improvement,
		TotalProfit:           cumulativeProfit,
		TotalLoanVolume:       totalVolume,
		AvgProductivityGrowth: growth,
	}
}

// clampRequest lleva la petición al rango [10, 250].
func clampRequest(v float64) float64 {
	return math.Max(minRequest, math.Min(maxRequest, v))
}
