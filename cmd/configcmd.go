package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/chmatch/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml to the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "config.yaml"
		if _, err := os.Stat(path); err == nil && !configForce {
			return eris.Errorf("%s already exists (use --force to overwrite)", path)
		}

		v := viper.New()
		for key, val := range config.Defaults() {
			v.SetDefault(key, val)
		}

		out, err := yaml.Marshal(v.AllSettings())
		if err != nil {
			return eris.Wrap(err, "config: marshal defaults")
		}

		header := []byte("# chmatch configuration.\n# All keys can also be set via CHMATCH_* environment variables,\n# e.g. CHMATCH_COMPANIES_HOUSE_API_KEY.\n")
		if err := os.WriteFile(path, append(header, out...), 0o644); err != nil {
			return eris.Wrap(err, "config: write file")
		}

		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
