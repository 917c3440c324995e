package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecosysx/simrun"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a simulation configuration file",
		Long: `Load a configuration file (JSON or YAML) and check every field against
the engine's constraints. All violations are reported at once, not just
the first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := simrun.LoadConfig(args[0])
			if err != nil {
				return err
			}

			verr := cfg.Validate()
			if jsonOut {
				result := map[string]any{
					"file":   args[0],
					"valid":  verr == nil,
					"config": cfg,
				}
				var ve *simrun.ValidationError
				if errors.As(verr, &ve) {
					result["violations"] = ve.Violations
				}
				json.NewEncoder(os.Stdout).Encode(result)
				if verr != nil {
					os.Exit(1)
				}
				return nil
			}

			if verr == nil {
				fmt.Printf("%s: valid (maxSteps=%d, populationSize=%d, seed=%d)\n",
					args[0], cfg.MaxSteps, cfg.PopulationSize, cfg.EffectiveSeed())
				return nil
			}

			var ve *simrun.ValidationError
			if errors.As(verr, &ve) {
				fmt.Printf("%s: invalid (%d violations):\n", args[0], len(ve.Violations))
				for _, v := range ve.Violations {
					fmt.Printf("  - %s\n", v)
				}
				os.Exit(1)
			}
			return verr
		},
	}
	return cmd
}
