package cli

import (
	"fmt"

	"github.com/raphaelgruber/procwise/internal/service"
	"github.com/spf13/cobra"
)

// offlineTemplates serves the template operations that need neither the
// database nor the LLM.
func (s *state) offlineTemplates() *service.TemplateService {
	return service.NewTemplateService(nil, nil, nil, nil, s.logger)
}

func newValidateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <template.yaml>",
		Short: "Validate a process template",
		Long: `Validate a process template read from a YAML file ("-" for stdin).

Checks required fields, step ids, dependencies, cycles and completeness.
A "requirements" section in the file is validated alongside. Exits non-zero
when the template has critical errors.

Example template:
  name: Release process
  description: Ship a release from planning to launch.
  steps:
    - {id: plan, name: Plan, duration: 4}
    - {id: build, name: Build, duration: 16, dependencies: [plan]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tf templateFile
			if err := readYAML(args[0], cmd.InOrStdin(), &tf); err != nil {
				return err
			}
			report := st.offlineTemplates().ValidateTemplate(tf.TemplateRecommendation, tf.Requirements)
			if err := st.output(cmd).report(report); err != nil {
				return err
			}
			if !report.OverallValid {
				return fmt.Errorf("%s: %w", args[0], service.ErrTemplateInvalid)
			}
			return nil
		},
	}
}

func newOptimizeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize <template.yaml>",
		Short: "Reorder template steps, critical path first",
		Long: `Reorder the steps of a template read from a YAML file ("-" for stdin).

Critical-path steps come first, then steps with fewer dependencies. Critical
steps are marked with *.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tf templateFile
			if err := readYAML(args[0], cmd.InOrStdin(), &tf); err != nil {
				return err
			}
			if len(tf.Steps) == 0 {
				return fmt.Errorf("%s: template has no steps", args[0])
			}
			return st.output(cmd).steps(st.offlineTemplates().OptimizeStepSequence(tf.Steps))
		},
	}
}

func newGenerateCmd(st *state) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "generate <requirements.yaml>",
		Short: "Generate a process template from interview requirements",
		Long: `Generate a process template with alternatives from analyzed interview
requirements read from a YAML file ("-" for stdin). Requires an LLM provider.

Example:
  requirements:
    process_name: Employee onboarding
    industry: tech
    process_type: hr
    goals: [productive in two weeks]
  context:
    complexity: medium`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var gf generateFile
			if err := readYAML(args[0], cmd.InOrStdin(), &gf); err != nil {
				return err
			}

			a, err := st.services(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := a.Templates.GenerateRecommendations(cmd.Context(), service.GenerateRequest{
				Analysis: gf.analysis(),
				Context:  gf.generationContext(),
			})
			if err != nil {
				return err
			}

			if userID != "" {
				for _, rec := range recs {
					if err := a.Templates.SaveTemplate(cmd.Context(), userID, rec); err != nil {
						return err
					}
				}
			}
			return st.output(cmd).recommendations(recs)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "save the generated template for this user")
	return cmd
}
