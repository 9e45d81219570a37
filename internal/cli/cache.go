package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the research cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Count unexpired research cache entries per domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbClient, err := st.database(cmd.Context())
			if err != nil {
				return err
			}
			fresh, err := dbClient.CountFreshResearch(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("count research: %w", err)
			}
			return st.output(cmd).coverage(fresh)
		},
	})
	return cmd
}
