package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func parseDomain(s string) (models.ResearchDomain, error) {
	switch s {
	case "practices", "best-practices", string(models.DomainBestPractices):
		return models.DomainBestPractices, nil
	case string(models.DomainCompliance):
		return models.DomainCompliance, nil
	case string(models.DomainBenchmarks):
		return models.DomainBenchmarks, nil
	default:
		return "", fmt.Errorf("unknown domain %q: use practices, compliance or benchmarks", s)
	}
}

func newResearchCmd(st *state) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "research <practices|compliance|benchmarks> <query>",
		Short: "Refresh the research cache for a query",
		Long: `Run live research for a query and store the results in the research cache,
under the same key the matching search uses. Requires an LLM provider.

The command waits for the research to finish. On a terminal it shows progress.

Examples:
  procwise research practices "incident response"
  procwise research compliance "data retention" --industry healthcare`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := parseDomain(args[0])
			if err != nil {
				return err
			}

			a, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			job, err := a.Search.Refresh(domain, flags.request(args[1]))
			if err != nil {
				return err
			}
			if job == nil {
				return errors.New("live research needs an LLM provider")
			}

			if !st.jsonOut && term.IsTerminal(int(os.Stdout.Fd())) {
				if err := runJobProgress(job, st.cfg.RefreshTimeout); err != nil {
					return err
				}
			}
			if err := a.Jobs.Wait(cmd.Context()); err != nil {
				return fmt.Errorf("wait for research: %w", err)
			}

			snap := job.Snapshot()
			return st.output(cmd).job(&snap)
		},
	}
	cmd.Flags().StringVarP(&flags.industry, "industry", "i", "", "industry, required for compliance and benchmarks")
	cmd.Flags().StringVar(&flags.region, "region", "", "region, scopes compliance research")
	return cmd
}
