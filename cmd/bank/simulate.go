package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/troyrocket/universe-bank/internal/application/sim"
)

var (
	simAgents int
	simEpochs int
	simSeed   int64
	simReport string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Credit system simulation & evaluation",
}

var simulateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run credit system simulation with autonomous agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Los flags mandan; sin flag, vale lo del config.
		if !cmd.Flags().Changed("agents") {
			simAgents = cfg.Simulation.Agents
		}
		if !cmd.Flags().Changed("epochs") {
			simEpochs = cfg.Simulation.Epochs
		}
		if !cmd.Flags().Changed("seed") {
			simSeed = cfg.Simulation.Seed
		}

		out := console()
		out.PrintSimHeader(simAgents, simEpochs, simSeed)

		engine := sim.New(sim.Config{
			Agents: simAgents,
			Epochs: simEpochs,
			Seed:   simSeed,
		})

		// Limita el repintado de la barra para que las simulaciones cortas
		// sigan siendo legibles en el terminal.
		limiter := rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

		report, err := engine.Run(cmd.Context(), func(m sim.EpochMetrics, progress float64) {
			if m.Epoch == simEpochs || limiter.Allow() {
				out.PrintEpochProgress(m.Epoch, simEpochs, progress)
			}
		})
		if err != nil {
			return err
		}

		out.PrintSimReport(*report)

		path := simReport
		if path == "" {
			path = cfg.Simulation.ReportPath
		}
		if err := writeReport(*report, path); err != nil {
			return err
		}
		slog.Info("full report saved", "path", path)
		return nil
	},
}

// writeReport vuelca el informe completo como JSON indentado.
func writeReport(r sim.Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func init() {
	simulateRunCmd.Flags().IntVar(&simAgents, "agents", 100, "number of autonomous agents")
	simulateRunCmd.Flags().IntVar(&simEpochs, "epochs", 24, "number of simulation epochs")
	simulateRunCmd.Flags().Int64Var(&simSeed, "seed", 42, "random seed for reproducibility")
	simulateRunCmd.Flags().StringVar(&simReport, "report", "", "report output path (overrides config)")

	simulateCmd.AddCommand(simulateRunCmd)
}
