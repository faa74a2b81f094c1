package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/troyrocket/universe-bank/internal/domain"
)

// Archetype is one of the five fixed borrower behavior profiles. The tag is
// resolved once at agent creation and fixes every sampling range below.
type Archetype string

const (
	ArchetypeExcellent Archetype = "excellent"
	ArchetypeGood      Archetype = "good"
	ArchetypeAverage   Archetype = "average"
	ArchetypeRisky     Archetype = "risky"
	ArchetypeBad       Archetype = "bad"
)

// Archetypes in their fixed generation order.
var Archetypes = []Archetype{
	ArchetypeExcellent,
	ArchetypeGood,
	ArchetypeAverage,
	ArchetypeRisky,
	ArchetypeBad,
}

// archetypeConfig holds the uniform sampling ranges for an archetype. The
// first three are hidden ground truth the model never sees; the rest shape
// the observable starting state.
type archetypeConfig struct {
	repayProb   [2]float64
	appetite    [2]float64
	requestMult [2]float64
	balance     [2]float64
	txCount     [2]float64
	deposits    [2]float64
	identity    float64 // probability of a registered identity
}

var archetypeConfigs = map[Archetype]archetypeConfig{
	ArchetypeExcellent: {
		repayProb:   [2]float64{0.95, 1.0},
		appetite:    [2]float64{0.7, 0.9},
		requestMult: [2]float64{0.3, 0.5},
		balance:     [2]float64{5000, 10000},
		txCount:     [2]float64{80, 200},
		deposits:    [2]float64{2000, 8000},
		identity:    0.98,
	},
	ArchetypeGood: {
		repayProb:   [2]float64{0.82, 0.95},
		appetite:    [2]float64{0.6, 0.8},
		requestMult: [2]float64{0.3, 0.6},
		balance:     [2]float64{2000, 6000},
		txCount:     [2]float64{30, 100},
		deposits:    [2]float64{500, 3000},
		identity:    0.85,
	},
	ArchetypeAverage: {
		repayProb:   [2]float64{0.55, 0.75},
		appetite:    [2]float64{0.5, 0.7},
		requestMult: [2]float64{0.4, 0.7},
		balance:     [2]float64{500, 3000},
		txCount:     [2]float64{5, 40},
		deposits:    [2]float64{0, 500},
		identity:    0.45,
	},
	ArchetypeRisky: {
		repayProb:   [2]float64{0.20, 0.45},
		appetite:    [2]float64{0.75, 0.95},
		requestMult: [2]float64{0.7, 1.0},
		balance:     [2]float64{50, 800},
		txCount:     [2]float64{0, 10},
		deposits:    [2]float64{0, 50},
		identity:    0.10,
	},
	ArchetypeBad: {
		repayProb:   [2]float64{0.02, 0.18},
		appetite:    [2]float64{0.9, 1.0},
		requestMult: [2]float64{0.9, 1.5},
		balance:     [2]float64{0, 100},
		txCount:     [2]float64{0, 3},
		deposits:    [2]float64{0, 0},
		identity:    0.02,
	},
}

// Distribución fija de la población: 15/25/30/20/10.
var archetypeDistribution = []struct {
	archetype Archetype
	ratio     float64
}{
	{ArchetypeExcellent, 0.15},
	{ArchetypeGood, 0.25},
	{ArchetypeAverage, 0.30},
	{ArchetypeRisky, 0.20},
	{ArchetypeBad, 0.10},
}

// SimLoan is an in-flight simulated loan. DisbursedAt is an epoch number,
// not a timestamp — loans resolve one epoch after disbursal.
type SimLoan struct {
	Amount       float64
	InterestRate float64
	DisbursedAt  int
	Status       domain.LoanStatus
}

// Agent is a simulated borrower: the observable state the feature extractor
// sees, plus hidden ground-truth behavior the model must learn to infer.
type Agent struct {
	ID        int
	Name      string
	Archetype Archetype

	// Observable on-chain state
	Balance            float64
	TransactionCount   int
	RepaymentHistory   []int
	PoolDeposits       float64
	IdentityRegistered bool
	AccountAge         float64

	// Hidden behavioral params (never exposed to the model)
	TrueRepayProbability float64
	LoanAppetite         float64
	RequestMultiplier    float64

	// State
	ActiveLoans       []SimLoan
	TotalBorrowed     float64
	TotalRepaidAmount float64
	Productivity      float64
	LoanCount         int
}

// Signals projects the agent's observable state into raw borrower signals.
func (a *Agent) Signals() domain.BorrowerSignals {
	return domain.BorrowerSignals{
		TransactionCount:   a.TransactionCount,
		RepaymentHistory:   a.RepaymentHistory,
		PoolDeposits:       a.PoolDeposits,
		IdentityRegistered: a.IdentityRegistered,
		AccountAge:         a.AccountAge,
		TotalBorrowed:      a.TotalBorrowed,
		LoanCount:          a.LoanCount,
	}
}

// newAgent draws one agent from its archetype's ranges. El orden de los
// draws es parte del contrato de determinismo — cambiarlo cambia toda la
// población para una misma seed.
func newAgent(id int, archetype Archetype, rng *rand.Rand) *Agent {
	cfg := archetypeConfigs[archetype]
	return &Agent{
		ID:                   id,
		Name:                 fmt.Sprintf("Agent-%03d", id),
		Archetype:            archetype,
		Balance:              math.Round(randRange(rng, cfg.balance)),
		TransactionCount:     int(math.Round(randRange(rng, cfg.txCount))),
		PoolDeposits:         math.Round(randRange(rng, cfg.deposits)),
		IdentityRegistered:   rng.Float64() < cfg.identity,
		TrueRepayProbability: randRange(rng, cfg.repayProb),
		LoanAppetite:         randRange(rng, cfg.appetite),
		RequestMultiplier:    randRange(rng, cfg.requestMult),
		Productivity:         math.Round(randRange(rng, cfg.balance) * 0.5),
	}
}

// GenerateAgents builds the population: each archetype gets its rounded
// share of count, padded with average agents (or truncated) to hit count
// exactly. Same seed, same population, every run.
func GenerateAgents(count int, rng *rand.Rand) []*Agent {
	agents := make([]*Agent, 0, count)

	for _, d := range archetypeDistribution {
		n := int(math.Round(float64(count) * d.ratio))
		for i := 0; i < n; i++ {
			agents = append(agents, newAgent(len(agents), d.archetype, rng))
		}
	}

	for len(agents) < count {
		agents = append(agents, newAgent(len(agents), ArchetypeAverage, rng))
	}
	if len(agents) > count {
		agents = agents[:count]
	}

	return agents
}

// ArchetypeCounts cuenta agentes por arquetipo.
func ArchetypeCounts(agents []*Agent) map[Archetype]int {
	counts := make(map[Archetype]int, len(Archetypes))
	for _, arch := range Archetypes {
		counts[arch] = 0
	}
	for _, a := range agents {
		counts[a.Archetype]++
	}
	return counts
}

func randRange(rng *rand.Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}
