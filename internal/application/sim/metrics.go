package sim

import "github.com/troyrocket/universe-bank/internal/domain"

// rollingWindowSize: epochs del promedio móvil de la tasa de impago.
const rollingWindowSize = 5

// EpochMetrics is the immutable per-epoch snapshot. The ordered sequence of
// all epochs is the simulation's full audit trail.
type EpochMetrics struct {
	Epoch                 int                   `json:"epoch"`
	Applications          int                   `json:"applications"`
	Approvals             int                   `json:"approvals"`
	Rejections            int                   `json:"rejections"`
	ApprovalRate          float64               `json:"approvalRate"`
	Repayments            int                   `json:"repayments"`
	Defaults              int                   `json:"defaults"`
	DefaultRate           float64               `json:"defaultRate"`
	RollingDefaultRate    float64               `json:"rollingDefaultRate"`
	CumulativeDefaultRate float64               `json:"cumulativeDefaultRate"`
	TotalDisbursed        float64               `json:"totalDisbursed"`
	TotalRepaid           float64               `json:"totalRepaid"`
	TotalDefaultLoss      float64               `json:"totalDefaultLoss"`
	NetProfit             float64               `json:"netProfit"`
	CumulativeProfit      float64               `json:"cumulativeProfit"`
	ModelVersion          int                   `json:"modelVersion"`
	AvgCreditScore        int                   `json:"avgCreditScore"`
	AgentProductivityAvg  float64               `json:"agentProductivityAvg"`
	ArchetypeDefaultRates map[Archetype]float64 `json:"archetypeDefaultRates"`
}

// Summary son los agregados finales de la corrida. Las tasas inicial/final
// salen del rolling rate del primer/último epoch con datos — más estables
// que la tasa instantánea.
type Summary struct {
	InitialDefaultRate    float64 `json:"initialDefaultRate"`
	FinalDefaultRate      float64 `json:"finalDefaultRate"`
	ImprovementPercent    float64 `json:"improvementPercent"`
	TotalProfit           float64 `json:"totalProfit"`
	TotalLoanVolume       float64 `json:"totalLoanVolume"`
	AvgProductivityGrowth float64 `json:"avgProductivityGrowth"`
}

// Report is the full exportable run document.
type Report struct {
	Seed            int64              `json:"seed"`
	AgentCount      int                `json:"agentCount"`
	EpochCount      int                `json:"epochCount"`
	Epochs          []EpochMetrics     `json:"epochs"`
	FinalModel      domain.ModelParams `json:"finalModel"`
	ArchetypeCounts map[Archetype]int  `json:"archetypeCounts"`
	Summary         Summary            `json:"summary"`
}

// rollingWindow acumula (defaults, resolved) de los últimos N epochs.
type rollingWindow struct {
	defaults []int
	resolved []int
}

func (w *rollingWindow) add(defaults, resolved int) {
	w.defaults = append(w.defaults, defaults)
	w.resolved = append(w.resolved, resolved)
	if len(w.defaults) > rollingWindowSize {
		w.defaults = w.defaults[1:]
		w.resolved = w.resolved[1:]
	}
}

func (w *rollingWindow) rate() float64 {
	var d, r int
	for i := range w.defaults {
		d += w.defaults[i]
		r += w.resolved[i]
	}
	if r == 0 {
		return 0
	}
	return float64(d) / float64(r)
}

// archetypeDefaultRates computes each archetype's cumulative default rate
// from the agents' full resolved history.
func archetypeDefaultRates(agents []*Agent) map[Archetype]float64 {
	type tally struct{ defaults, total int }
	tallies := make(map[Archetype]*tally, len(Archetypes))
	for _, arch := range Archetypes {
		tallies[arch] = &tally{}
	}

	for _, a := range agents {
		t := tallies[a.Archetype]
		for _, r := range a.RepaymentHistory {
			t.total++
			if r == 0 {
				t.defaults++
			}
		}
	}

	rates := make(map[Archetype]float64, len(Archetypes))
	for _, arch := range Archetypes {
		t := tallies[arch]
		if t.total > 0 {
			rates[arch] = float64(t.defaults) / float64(t.total)
		} else {
			rates[arch] = 0
		}
	}
	return rates
}

func meanProductivity(agents []*Agent) float64 {
	if len(agents) == 0 {
		return 0
	}
	var sum float64
	for _, a := range agents {
		sum += a.Productivity
	}
	return sum / float64(len(agents))
}
