package domain

import (
	"fmt"
	"math"
)

// Score bounds of the 300-850 scale.
const (
	ScoreFloor = 300
	ScoreSpan  = 550
)

// Decision is the outcome of evaluating a loan application. A denial is a
// normal decision with a reason string, never an error.
type Decision struct {
	Approved     bool    `json:"approved"`
	Score        int     `json:"score"`
	MaxAmount    float64 `json:"maxAmount"`
	InterestRate float64 `json:"interestRate"`
	Reason       string  `json:"reason"`
}

// Outcome is a resolved loan paired with the features the borrower had at
// evaluation time. The trainer consumes these.
type Outcome struct {
	Features Features
	Repaid   bool
}

// sigmoid squashes to (0,1). The ±500 clamp guards exp overflow, not the
// domain — scoring must never crash a batch simulation mid-run.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-math.Max(-500, math.Min(500, x))))
}

// dotProduct es la suma de los seis productos peso×feature.
func dotProduct(w Weights, f Features) float64 {
	return w.TransactionCount*f.TransactionCount +
		w.RepaymentRate*f.RepaymentRate +
		w.PoolDeposits*f.PoolDeposits +
		w.IdentityRegistered*f.IdentityRegistered +
		w.AccountAge*f.AccountAge +
		w.AvgLoanSize*f.AvgLoanSize
}

// CalculateCreditScore computes the 300-850 credit score.
//
//	score = round(300 + 550·σ(w·f + bias))
//
// Deterministic and pure: same features + model always give the same score.
func CalculateCreditScore(f Features, m ModelParams) int {
	p := sigmoid(dotProduct(m.Weights, f) + m.Bias)
	return int(round(ScoreFloor + p*ScoreSpan))
}

// EvaluateLoanApplication aplica la política de aprobación. Stateless y
// reproducible bit a bit: mismo score/amount/modelo → misma decisión.
//
// p = (score-300)/550. Por debajo del threshold se deniega sin límite ni
// tasa. Por encima, el límite es p·maxLoanMultiplier y la tasa castiga al
// riesgo: los aprobados con p más bajo pagan más premium.
func EvaluateLoanApplication(score int, requestedAmount float64, m ModelParams) Decision {
	p := float64(score-ScoreFloor) / ScoreSpan

	if p < m.Threshold {
		return Decision{
			Approved: false,
			Score:    score,
			Reason:   fmt.Sprintf("Credit score %d below minimum threshold (need %d+)", score, m.MinApprovalScore()),
		}
	}

	maxAmount := round(p * m.MaxLoanMultiplier)
	rate := InterestRateFor(score, m)

	if requestedAmount > maxAmount {
		// Denegado, pero devolvemos límite y tasa calculados para mostrar.
		return Decision{
			Approved:     false,
			Score:        score,
			MaxAmount:    maxAmount,
			InterestRate: rate,
			Reason:       fmt.Sprintf("Requested $%.0f exceeds credit limit of $%.0f", requestedAmount, maxAmount),
		}
	}

	return Decision{
		Approved:     true,
		Score:        score,
		MaxAmount:    maxAmount,
		InterestRate: rate,
		Reason:       "Approved",
	}
}

// InterestRateFor es la tasa que pagaría un score dado: base más premium
// inversamente proporcional a la calidad, redondeada a 4 decimales.
func InterestRateFor(score int, m ModelParams) float64 {
	p := float64(score-ScoreFloor) / ScoreSpan
	return round4(m.BaseInterestRate + (1-p)*m.RiskPremiumFactor)
}

// UpdateModel runs one pass of online SGD over the outcomes, in order.
// Each outcome sees the weights left by the previous one within the same
// call — the order dependence is deliberate and must be preserved for
// reproducibility. An empty batch returns the model unchanged, same version.
func UpdateModel(m ModelParams, outcomes []Outcome) ModelParams {
	if len(outcomes) == 0 {
		return m
	}

	w := m.Weights
	bias := m.Bias
	lr := m.LearningRate

	for _, o := range outcomes {
		predicted := sigmoid(dotProduct(w, o.Features) + bias)
		target := 0.0
		if o.Repaid {
			target = 1.0
		}
		err := predicted - target

		w.TransactionCount -= lr * err * o.Features.TransactionCount
		w.RepaymentRate -= lr * err * o.Features.RepaymentRate
		w.PoolDeposits -= lr * err * o.Features.PoolDeposits
		w.IdentityRegistered -= lr * err * o.Features.IdentityRegistered
		w.AccountAge -= lr * err * o.Features.AccountAge
		w.AvgLoanSize -= lr * err * o.Features.AvgLoanSize
		bias -= lr * err
	}

	updated := m
	updated.Version = m.Version + 1
	updated.Weights = w
	updated.Bias = bias
	updated.TrainingSamples = m.TrainingSamples + len(outcomes)
	return updated
}

func round(x float64) float64 {
	return math.Round(x)
}

// round4 redondea a 4 decimales (tasas de interés).
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
