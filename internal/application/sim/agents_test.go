package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAgents_Seed42Distribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	agents := GenerateAgents(100, rng)

	require.Len(t, agents, 100)
	counts := ArchetypeCounts(agents)
	assert.Equal(t, 15, counts[ArchetypeExcellent])
	assert.Equal(t, 25, counts[ArchetypeGood])
	assert.Equal(t, 30, counts[ArchetypeAverage])
	assert.Equal(t, 20, counts[ArchetypeRisky])
	assert.Equal(t, 10, counts[ArchetypeBad])
}

func TestGenerateAgents_ExactCountAlways(t *testing.T) {
	for _, count := range []int{1, 3, 7, 50, 99, 101, 250} {
		rng := rand.New(rand.NewSource(1))
		agents := GenerateAgents(count, rng)
		assert.Len(t, agents, count, "count %d", count)
	}
}

func TestGenerateAgents_Deterministic(t *testing.T) {
	a := GenerateAgents(100, rand.New(rand.NewSource(7)))
	b := GenerateAgents(100, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)

	c := GenerateAgents(100, rand.New(rand.NewSource(8)))
	assert.NotEqual(t, a, c)
}

func TestGenerateAgents_ParamsWithinArchetypeRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	agents := GenerateAgents(200, rng)

	for _, a := range agents {
		cfg := archetypeConfigs[a.Archetype]
		assert.GreaterOrEqual(t, a.TrueRepayProbability, cfg.repayProb[0])
		assert.LessOrEqual(t, a.TrueRepayProbability, cfg.repayProb[1])
		assert.GreaterOrEqual(t, a.LoanAppetite, cfg.appetite[0])
		assert.LessOrEqual(t, a.LoanAppetite, cfg.appetite[1])
		assert.GreaterOrEqual(t, a.RequestMultiplier, cfg.requestMult[0])
		assert.LessOrEqual(t, a.RequestMultiplier, cfg.requestMult[1])
		assert.GreaterOrEqual(t, a.Balance, cfg.balance[0])
		assert.LessOrEqual(t, a.Balance, cfg.balance[1])
	}
}

func TestGenerateAgents_StartClean(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	agents := GenerateAgents(50, rng)

	for _, a := range agents {
		assert.Empty(t, a.RepaymentHistory)
		assert.Empty(t, a.ActiveLoans)
		assert.Zero(t, a.LoanCount)
		assert.Zero(t, a.TotalBorrowed)
		assert.Zero(t, a.AccountAge)
	}
}

func TestGenerateAgents_BadArchetypeHasNoDeposits(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	agents := GenerateAgents(100, rng)

	for _, a := range agents {
		if a.Archetype == ArchetypeBad {
			assert.Equal(t, 0.0, a.PoolDeposits)
		}
	}
}

func TestAgentNames(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	agents := GenerateAgents(3, rng)
	assert.Equal(t, "Agent-000", agents[0].Name)
	assert.Equal(t, "Agent-002", agents[2].Name)
}
