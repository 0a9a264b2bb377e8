package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/chmatch/internal/model"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve NAME",
	Short: "Resolve a single company name",
	Long: `Resolves one free-text company name against Companies House and
prints the outcome as JSON.

Example:
  chmatch resolve "BBC Studios Ltd"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initResolver(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		outcome := env.Resolver.Resolve(ctx, args[0])

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return eris.Wrap(err, "resolve: encode outcome")
		}

		if outcome.Status == model.OutcomeFailed {
			return eris.Errorf("resolve: %s", outcome.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
