package notify

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/troyrocket/universe-bank/internal/application/sim"
	"github.com/troyrocket/universe-bank/internal/domain"
)

// Estilos de salida. Los colores siguen la misma paleta en todo el CLI:
// verde = sano/aprobado, amarillo = atención, rojo = riesgo/denegado.
var (
	boldStyle   = lipgloss.NewStyle().Bold(true)
	grayStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cyanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	boxStyle    = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00d4ff")).
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#00d4ff")).
			Padding(0, 2)
)

// Console imprime decisiones, informes y resultados de simulación.
type Console struct {
	out io.Writer
}

// NewConsole crea una consola que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea una consola para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintDecision imprime el resultado de una solicitud de préstamo.
func (c *Console) PrintDecision(d domain.Decision, loan *domain.Loan) {
	fmt.Fprintln(c.out)
	if d.Approved && loan != nil {
		fmt.Fprintf(c.out, "  %s\n\n", greenStyle.Bold(true).Render("LOAN APPROVED"))
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Loan ID:"), boldStyle.Render(loan.ID))
		fmt.Fprintf(c.out, "  %s $%.2f\n", grayStyle.Render("Amount:"), loan.Amount)
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Rate:"), formatRate(loan.InterestRate))
		fmt.Fprintf(c.out, "  %s $%.2f\n", grayStyle.Render("Total owed:"), loan.TotalOwed())
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Due:"), loan.DueAt.Format("2006-01-02"))
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Credit score:"), formatScore(d.Score))
	} else {
		fmt.Fprintf(c.out, "  %s\n\n", redStyle.Bold(true).Render("LOAN DENIED"))
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Reason:"), d.Reason)
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Credit score:"), formatScore(d.Score))
		fmt.Fprintf(c.out, "  %s $%.2f at %s\n",
			grayStyle.Render("You qualify for up to:"), d.MaxAmount, formatRate(d.InterestRate))
	}
	fmt.Fprintln(c.out)
}

// PrintRepayment imprime el resultado de un pago.
func (c *Console) PrintRepayment(loan domain.Loan, applied, remaining float64, fullyRepaid bool) {
	fmt.Fprintln(c.out)
	if fullyRepaid {
		fmt.Fprintf(c.out, "  %s\n\n", greenStyle.Bold(true).Render("LOAN FULLY REPAID"))
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Loan:"), loan.ID)
		fmt.Fprintf(c.out, "  %s $%.2f\n", grayStyle.Render("Payment applied:"), applied)
		fmt.Fprintf(c.out, "  %s\n", cyanStyle.Render("Credit model updated with this repayment."))
	} else {
		fmt.Fprintf(c.out, "  %s\n\n", yellowStyle.Bold(true).Render("PARTIAL PAYMENT"))
		fmt.Fprintf(c.out, "  %s %s\n", grayStyle.Render("Loan:"), loan.ID)
		fmt.Fprintf(c.out, "  %s $%.2f\n", grayStyle.Render("Payment applied:"), applied)
		fmt.Fprintf(c.out, "  %s $%.2f\n", grayStyle.Render("Remaining:"), remaining)
	}
	fmt.Fprintln(c.out)
}

// PrintCreditReport imprime el score actual con las features que lo explican.
func (c *Console) PrintCreditReport(score int, f domain.Features, maxAmount, rate float64, minScore int) {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s %s %s\n\n",
		boldStyle.Render("CREDIT SCORE:"), formatScore(score),
		grayStyle.Render(fmt.Sprintf("(min for approval: %d)", minScore)))

	fmt.Fprintf(c.out, "  %s $%.2f\n", grayStyle.Render("Max loan:"), maxAmount)
	fmt.Fprintf(c.out, "  %s %s\n\n", grayStyle.Render("Your rate:"), formatRate(rate))

	fmt.Fprintln(c.out, grayStyle.Render("  Signals (normalized 0-1):"))
	printFeatureBar(c.out, "Repayment rate", f.RepaymentRate)
	printFeatureBar(c.out, "Transaction count", f.TransactionCount)
	printFeatureBar(c.out, "Pool deposits", f.PoolDeposits)
	printFeatureBar(c.out, "Account age", f.AccountAge)
	printFeatureBar(c.out, "Identity registered", f.IdentityRegistered)
	printFeatureBar(c.out, "Avg loan size", f.AvgLoanSize)
	fmt.Fprintln(c.out)
}

// PrintModel imprime los parámetros actuales del modelo de crédito.
func (c *Console) PrintModel(m domain.ModelParams) {
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "  %s\n\n", boldStyle.Render("CREDIT MODEL"))
	fmt.Fprintf(c.out, "  %s v%d  %s %d samples\n",
		grayStyle.Render("Version:"), m.Version,
		grayStyle.Render("Trained on:"), m.TrainingSamples)
	fmt.Fprintf(c.out, "  %s %.4f  %s %s\n",
		grayStyle.Render("Approval threshold:"), m.Threshold,
		grayStyle.Render("Base rate:"), formatRate(m.BaseInterestRate))
	fmt.Fprintf(c.out, "  %s %.4f  %s $%.0f\n\n",
		grayStyle.Render("Bias:"), m.Bias,
		grayStyle.Render("Max multiplier:"), m.MaxLoanMultiplier)

	fmt.Fprintln(c.out, grayStyle.Render("  Learned weights (by importance):"))
	printWeights(c.out, m.Weights)
	fmt.Fprintln(c.out)
}

// PrintLoans imprime la tabla de préstamos y el resumen del libro.
func (c *Console) PrintLoans(loans []domain.Loan, s domain.LedgerSummary) {
	if len(loans) == 0 {
		fmt.Fprintln(c.out, "\n  No loans on record.")
		return
	}

	fmt.Fprintln(c.out)
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Borrower", "Amount", "Rate", "Owed", "Repaid", "Status", "Due")

	for _, l := range loans {
		table.Append(
			l.ID,
			truncate(l.Borrower, 14),
			fmt.Sprintf("$%.2f", l.Amount),
			fmt.Sprintf("%.2f%%", l.InterestRate*100),
			fmt.Sprintf("$%.2f", l.TotalOwed()),
			fmt.Sprintf("$%.2f", l.RepaidAmount),
			statusLabel(l.Status),
			l.DueAt.Format("2006-01-02"),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  %s %d active / %d repaid / %d defaulted\n",
		grayStyle.Render("Loans:"), s.Active, s.Repaid, s.Defaulted)
	fmt.Fprintf(c.out, "  %s $%.2f  %s $%.2f  %s $%.2f\n\n",
		grayStyle.Render("Disbursed:"), s.TotalDisbursed,
		grayStyle.Render("Repaid:"), s.TotalRepaid,
		grayStyle.Render("Outstanding:"), s.ActiveBalance)
}

// PrintSimHeader imprime la cabecera de la simulación.
func (c *Console) PrintSimHeader(agents, epochs int, seed int64) {
	body := fmt.Sprintf("UNIVERSE BANK — Credit System Simulation\n\nAgents: %d  │  Epochs: %d  │  Seed: %d",
		agents, epochs, seed)
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, boxStyle.Render(body))
	fmt.Fprintln(c.out)
}

// PrintEpochProgress imprime la barra de progreso de la simulación.
// Usa retorno de carro para sobrescribir la línea en un TTY.
func (c *Console) PrintEpochProgress(epoch, total int, progress float64) {
	filled := int(math.Round(progress * 20))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
	fmt.Fprintf(c.out, "\r  Simulating epoch %d/%d [%s] %d%%", epoch, total, bar, int(math.Round(progress*100)))
	if epoch == total {
		fmt.Fprintf(c.out, "\n  [%s] simulation complete, %d epochs processed\n",
			time.Now().Format("15:04:05"), total)
	}
}

// PrintSimReport imprime el informe completo: tabla de epochs, gráficas y
// desglose por arquetipo.
func (c *Console) PrintSimReport(r sim.Report) {
	if len(r.Epochs) == 0 {
		fmt.Fprintln(c.out, "\n  No epochs simulated.")
		return
	}

	// Tabla con epochs clave: el primero, cada tercero y el último
	fmt.Fprintln(c.out)
	table := tablewriter.NewWriter(c.out)
	table.Header("Epoch", "Default%", "Rolling%", "Approved", "Rejected", "Profit", "Model")

	for i, m := range r.Epochs {
		if i != 0 && (i+1)%3 != 0 && i != len(r.Epochs)-1 {
			continue
		}
		table.Append(
			fmt.Sprintf("%d", m.Epoch),
			formatDefaultRate(m.DefaultRate),
			formatDefaultRate(m.RollingDefaultRate),
			fmt.Sprintf("%d", m.Approvals),
			fmt.Sprintf("%d", m.Rejections),
			formatMoney(m.NetProfit),
			fmt.Sprintf("v%d", m.ModelVersion),
		)
	}
	table.Render()

	// Gráfica 1: tasa de impago (rolling, para una curva suave)
	rates := make([]float64, len(r.Epochs))
	for i, m := range r.Epochs {
		rates[i] = m.RollingDefaultRate * 100
	}
	fmt.Fprintln(c.out, renderLineChart(rates, chartOptions{
		Title:   "Default Rate Over Time (Self-Improving Credit Model)",
		YLabel:  "Lower is better — model learns to reject bad borrowers",
		YFormat: func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
		XLabel:  "Epoch",
		Style:   redStyle,
		Height:  14,
	}))
	fmt.Fprintln(c.out)

	// Gráfica 2: productividad media de los agentes
	prod := make([]float64, len(r.Epochs))
	for i, m := range r.Epochs {
		prod[i] = m.AgentProductivityAvg
	}
	fmt.Fprintln(c.out, renderLineChart(prod, chartOptions{
		Title:   "Agent Productivity Growth (Borrowing Expands Capacity)",
		YLabel:  "Agents who borrow and repay grow their productive capacity",
		YFormat: func(v float64) string { return "$" + abbreviate(v) },
		XLabel:  "Epoch",
		Style:   cyanStyle,
		Height:  10,
	}))
	fmt.Fprintln(c.out)

	c.printArchetypes(r)
	c.printSummary(r)
}

func (c *Console) printArchetypes(r sim.Report) {
	last := r.Epochs[len(r.Epochs)-1]

	table := tablewriter.NewWriter(c.out)
	table.Header("Archetype", "Count", "True Def%", "Status")

	for _, a := range sim.Archetypes {
		rate := last.ArchetypeDefaultRates[a]
		var status string
		switch {
		case rate < 0.1:
			status = greenStyle.Render("Correctly approved")
		case rate < 0.3:
			status = yellowStyle.Render("Mostly approved")
		case rate > 0.7:
			status = greenStyle.Render("Correctly rejected")
		default:
			status = yellowStyle.Render("Learning...")
		}
		table.Append(
			archetypeLabel(a),
			fmt.Sprintf("%d", r.ArchetypeCounts[a]),
			formatDefaultRate(rate),
			status,
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) printSummary(r sim.Report) {
	s := r.Summary
	fmt.Fprintln(c.out, grayStyle.Render("  ────────────────────────────────────────────"))
	fmt.Fprintf(c.out, "  %s Default rate improved: %.1f%% → %.1f%% (%s)\n",
		greenStyle.Render("✔"),
		s.InitialDefaultRate*100, s.FinalDefaultRate*100,
		greenStyle.Render(fmt.Sprintf("-%.1f%%", s.ImprovementPercent)))
	fmt.Fprintf(c.out, "  %s Model self-improved through %d training cycles (%d samples)\n",
		greenStyle.Render("✔"), r.FinalModel.Version, r.FinalModel.TrainingSamples)
	fmt.Fprintf(c.out, "  %s Agent productivity grew %s on average\n",
		greenStyle.Render("✔"), boldStyle.Render(fmt.Sprintf("%.0f%%", s.AvgProductivityGrowth)))
	fmt.Fprintf(c.out, "  %s Total loan volume: %s\n",
		greenStyle.Render("✔"), boldStyle.Render("$"+abbreviate(s.TotalLoanVolume)))
	fmt.Fprintf(c.out, "  %s Net profit: %s\n",
		greenStyle.Render("✔"), formatMoney(s.TotalProfit))
	fmt.Fprintln(c.out)

	fmt.Fprintln(c.out, boldStyle.Render("  Learned Model Weights (most important features):"))
	printWeights(c.out, r.FinalModel.Weights)
	fmt.Fprintln(c.out)
}

// --- helpers ---

// printWeights imprime los pesos ordenados por magnitud con una barra
// proporcional, verde si empujan el score hacia arriba y roja si lo bajan.
func printWeights(w io.Writer, weights domain.Weights) {
	type entry struct {
		name  string
		value float64
	}
	entries := []entry{
		{"Repayment Rate", weights.RepaymentRate},
		{"Identity Verified", weights.IdentityRegistered},
		{"Pool Deposits", weights.PoolDeposits},
		{"Transaction Count", weights.TransactionCount},
		{"Account Age", weights.AccountAge},
		{"Avg Loan Size", weights.AvgLoanSize},
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return math.Abs(entries[i].value) > math.Abs(entries[j].value)
	})

	for _, e := range entries {
		width := int(math.Round(math.Abs(e.value) * 3))
		if width > 20 {
			width = 20
		}
		bar := strings.Repeat("█", width)
		if e.value > 0 {
			bar = greenStyle.Render(bar)
		} else {
			bar = redStyle.Render(bar)
		}
		sign := ""
		if e.value > 0 {
			sign = "+"
		}
		fmt.Fprintf(w, "    %-20s %s %s%.3f\n", e.name, bar, sign, e.value)
	}
}

func printFeatureBar(w io.Writer, name string, v float64) {
	width := int(math.Round(v * 20))
	if width < 0 {
		width = 0
	}
	if width > 20 {
		width = 20
	}
	bar := greenStyle.Render(strings.Repeat("█", width)) +
		grayStyle.Render(strings.Repeat("░", 20-width))
	fmt.Fprintf(w, "    %-20s %s %.2f\n", name, bar, v)
}

func formatScore(score int) string {
	s := fmt.Sprintf("%d", score)
	switch {
	case score >= 700:
		return greenStyle.Bold(true).Render(s)
	case score >= 500:
		return yellowStyle.Bold(true).Render(s)
	default:
		return redStyle.Bold(true).Render(s)
	}
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}

func formatDefaultRate(rate float64) string {
	pct := rate * 100
	s := fmt.Sprintf("%.1f%%", pct)
	switch {
	case pct > 20:
		return redStyle.Render(s)
	case pct > 10:
		return yellowStyle.Render(s)
	default:
		return greenStyle.Render(s)
	}
}

func formatMoney(amount float64) string {
	s := fmt.Sprintf("$%.0f", math.Abs(amount))
	if amount < 0 {
		return redStyle.Render("-" + s)
	}
	return greenStyle.Render("+" + s)
}

func statusLabel(s domain.LoanStatus) string {
	switch s {
	case domain.LoanActive:
		return yellowStyle.Render(string(s))
	case domain.LoanRepaid:
		return greenStyle.Render(string(s))
	case domain.LoanDefaulted:
		return redStyle.Render(string(s))
	}
	return string(s)
}

func archetypeLabel(a sim.Archetype) string {
	switch a {
	case sim.ArchetypeExcellent:
		return greenStyle.Render(string(a))
	case sim.ArchetypeGood:
		return cyanStyle.Render(string(a))
	case sim.ArchetypeAverage:
		return yellowStyle.Render(string(a))
	case sim.ArchetypeRisky:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00")).Render(string(a))
	case sim.ArchetypeBad:
		return redStyle.Render(string(a))
	}
	return string(a)
}

func abbreviate(num float64) string {
	abs := math.Abs(num)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", num/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", num/1_000)
	}
	return fmt.Sprintf("%.0f", num)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
