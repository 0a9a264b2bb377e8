package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/chmatch/pkg/companieshouse"
)

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key",
	Short: "Check that the configured API key is accepted",
	Long:  "Issues a one-item probe search against Companies House to confirm the API key works.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.CompaniesHouse.APIKey == "" {
			return errors.New("no API key configured: set CHMATCH_COMPANIES_HOUSE_API_KEY or companies_house.api_key in config.yaml")
		}

		client := companieshouse.NewClient(cfg.CompaniesHouse.APIKey,
			companieshouse.WithBaseURL(cfg.CompaniesHouse.BaseURL),
			companieshouse.WithTimeout(10*time.Second),
		)

		err := client.ValidateKey(cmd.Context())
		switch {
		case err == nil:
			fmt.Println("API key is valid and working")
			return nil
		case errors.Is(err, companieshouse.ErrUnauthorized):
			return errors.New("API key rejected (401/403): check the key was pasted exactly as issued, without a Basic/Bearer prefix")
		case errors.Is(err, companieshouse.ErrRateLimited):
			return errors.New("rate limit exceeded (429): the key may be valid, try again later")
		default:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(validateKeyCmd)
}
