package cli

import (
	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/raphaelgruber/procwise/internal/service"
	"github.com/spf13/cobra"
)

// searchFlags are shared by the search subcommands.
type searchFlags struct {
	industry    string
	processType string
	complexity  string
	severity    string
	region      string
	companySize string
	category    string
	tags        []string
	limit       int
	live        bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.industry, "industry", "i", "", "industry filter")
	cmd.Flags().StringVarP(&f.processType, "process-type", "p", "", "process type filter")
	cmd.Flags().StringVar(&f.complexity, "complexity", "", "complexity filter (simple, medium, complex, very_complex)")
	cmd.Flags().StringSliceVarP(&f.tags, "tags", "t", nil, "require at least one of these tags")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "max results (default 20, max 100)")
	cmd.Flags().BoolVar(&f.live, "live", false, "run live research now instead of refreshing in the background")
}

func (f *searchFlags) request(query string) service.SearchRequest {
	return service.SearchRequest{
		Query: query,
		Filters: models.SearchFilters{
			Industry:    f.industry,
			ProcessType: f.processType,
			Complexity:  models.Complexity(f.complexity),
			Severity:    models.Severity(f.severity),
			Region:      f.region,
			CompanySize: f.companySize,
			Category:    f.category,
			Tags:        f.tags,
		},
		Limit:       f.limit,
		IncludeLive: f.live,
	}
}

func newSearchCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search best practices, compliance requirements and benchmarks",
		Long: `Search the knowledge base, the research cache and optionally live research.

Results from all sources are merged, filtered and ranked. Thin or missing
cache coverage schedules research in the background so later searches
find more.

Examples:
  procwise search practices "code review" --industry tech
  procwise search compliance "data retention" --industry healthcare --region EU
  procwise search benchmarks "cycle time" --industry manufacturing --category time`,
	}
	cmd.AddCommand(
		newSearchPracticesCmd(st),
		newSearchComplianceCmd(st),
		newSearchBenchmarksCmd(st),
	)
	return cmd
}

func newSearchPracticesCmd(st *state) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:     "practices <query>",
		Aliases: []string{"best-practices"},
		Short:   "Search process best practices",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := a.Search.SearchBestPractices(cmd.Context(), flags.request(args[0]))
			if err != nil {
				return err
			}
			return st.output(cmd).practices(resp)
		},
	}
	flags.register(cmd)
	return cmd
}

func newSearchComplianceCmd(st *state) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "compliance <query>",
		Short: "Search compliance requirements, most severe first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := a.Search.SearchCompliance(cmd.Context(), flags.request(args[0]))
			if err != nil {
				return err
			}
			return st.output(cmd).compliance(resp)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.severity, "severity", "", "severity filter (critical, high, medium, low)")
	cmd.Flags().StringVar(&flags.region, "region", "", "region filter")
	_ = cmd.MarkFlagRequired("industry")
	return cmd
}

func newSearchBenchmarksCmd(st *state) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "benchmarks <query>",
		Short: "Search performance benchmarks with normalized percentiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := a.Search.SearchBenchmarks(cmd.Context(), flags.request(args[0]))
			if err != nil {
				return err
			}
			return st.output(cmd).benchmarks(resp)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.region, "region", "", "region, boosts matching benchmarks")
	cmd.Flags().StringVar(&flags.companySize, "company-size", "", "company size, boosts matching benchmarks")
	cmd.Flags().StringVar(&flags.category, "category", "", "metric category, also picks placeholder units")
	_ = cmd.MarkFlagRequired("industry")
	return cmd
}
