package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tickerfetch/internal/ledger"
)

func newDailyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Fetches the last trading day of every supported ticker in one request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := e.cfg.RequireToken(); err != nil {
				return err
			}

			client := e.priceClient()
			defer client.Close()

			failures, err := ledger.Open(e.cfg.FailedTickersFile)
			if err != nil {
				return fmt.Errorf("error opening failure ledger: %w", err)
			}
			defer failures.Close()

			outcome := e.priceFetcher(client, failures).FetchLastTradingDay(cmd.Context())
			if !outcome.OK() {
				return fmt.Errorf("error fetching last trading day: %w", outcome.Err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "last trading day saved to %s\n", outcome.Path)
			return nil
		},
	}
}
