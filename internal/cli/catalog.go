package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tickerfetch/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Downloads the supported tickers catalog and prints the selection size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}

			tickers, err := e.loadCatalog(cmd.Context())
			if err != nil {
				return fmt.Errorf("error loading catalog: %w", err)
			}

			if out != "" {
				if err := catalog.WriteParquet(out, tickers); err != nil {
					return fmt.Errorf("error writing catalog: %w", err)
				}
				e.log.Info("catalog exported", "path", out, "rows", len(tickers))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d tickers selected\n", len(tickers))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write the selected catalog to this parquet file")
	return cmd
}
