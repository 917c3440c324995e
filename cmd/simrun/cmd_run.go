package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ecosysx/simrun"
	"github.com/ecosysx/simrun/engine/sidecar"
	"github.com/ecosysx/simrun/internal/logging"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation to completion",
		Long: `Start the engine process, submit the configuration, and step the
simulation until the planned step count is reached.

The engine is resolved from --command, or from --interpreter plus --script
(with SIMRUN_* environment variables as fallbacks). Interrupting the run
stops the engine on its shutdown deadline before exiting.

Example:
  simrun run --config sim.yaml --batch 10 --snapshot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			steps, _ := cmd.Flags().GetInt("steps")
			batch, _ := cmd.Flags().GetInt("batch")
			snapshot, _ := cmd.Flags().GetBool("snapshot")
			command, _ := cmd.Flags().GetString("command")
			interpreter, _ := cmd.Flags().GetString("interpreter")
			script, _ := cmd.Flags().GetString("script")
			workDir, _ := cmd.Flags().GetString("workdir")
			jsonOut, _ := cmd.Flags().GetBool("json")
			logLevel, _ := cmd.Flags().GetString("log-level")
			tracePath, _ := cmd.Flags().GetString("trace")

			cfg, err := simrun.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if steps > 0 {
				cfg.MaxSteps = steps
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			envOpt, err := sidecar.FromEnv()
			if err != nil {
				return err
			}
			opts := []sidecar.EngineOption{
				envOpt,
				sidecar.WithLogger(logging.NewLogger(logLevel, os.Stderr)),
			}
			if command != "" {
				opts = append(opts, sidecar.WithCommand(command))
			}
			if interpreter != "" {
				opts = append(opts, sidecar.WithInterpreter(interpreter))
			}
			if script != "" {
				opts = append(opts, sidecar.WithScript(script))
			}
			if workDir != "" {
				opts = append(opts, sidecar.WithWorkDir(workDir))
			}

			eng := sidecar.New(opts...)
			if err := eng.Validate(); err != nil {
				return fmt.Errorf("engine not runnable: %w", err)
			}

			trace := logging.NewTraceLogger(tracePath)
			defer trace.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSimulation(ctx, eng, runOptions{
				Config:    cfg,
				BatchSize: batch,
				Snapshot:  snapshot,
				JSONOut:   jsonOut,
				Out:       os.Stdout,
				ErrOut:    os.Stderr,
				Trace:     trace,
			})
		},
	}

	cmd.Flags().String("config", "", "Configuration file, JSON or YAML (required)")
	cmd.Flags().Int("steps", 0, "Override the config's maxSteps budget")
	cmd.Flags().Int("batch", 1, "Ticks requested per step command")
	cmd.Flags().Bool("snapshot", false, "Take a full snapshot before stopping")
	cmd.Flags().String("command", "", "Direct engine executable (bypasses script discovery)")
	cmd.Flags().String("interpreter", "", "Interpreter for the sidecar script")
	cmd.Flags().String("script", "", "Sidecar script path")
	cmd.Flags().String("workdir", "", "Engine working directory")
	cmd.MarkFlagRequired("config")

	return cmd
}
