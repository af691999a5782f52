package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"quiz-calibration/internal/app"
	"quiz-calibration/internal/config"
	"quiz-calibration/internal/domain"
)

// NewAnalyzeCmd builds the batch analysis subcommand.
func NewAnalyzeCmd(configPath *string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the calibration analysis over all configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), *configPath, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report JSON to this file (overrides config)")
	return cmd
}

func runAnalyze(ctx context.Context, configPath, output string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.Output.Path
	}

	source, _, cleanup, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	service, err := app.NewAnalysisService(source, analysisParams(cfg))
	if err != nil {
		return err
	}

	report, err := service.Analyze(ctx)
	if err != nil {
		return err
	}

	printReport(report)

	if output != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Printf("report written to %s", output)
	}
	return nil
}

func printReport(report domain.AnalysisReport) {
	fmt.Println("Final scores:")
	for _, r := range report.Respondents {
		for _, s := range r.FinalScores {
			fmt.Printf("  %-20s %-20s %d/%d\n", r.RespondentID, s.QuizID, s.Score, s.Total)
		}
	}

	fmt.Println("\nBrier scores (lower is better):")
	for _, r := range report.Respondents {
		fmt.Printf("  %-20s %.4f\n", r.RespondentID, r.BrierScore)
	}
	for _, r := range report.References {
		fmt.Printf("  %-20s %.4f (reference)\n", r.RespondentID, r.BrierScore)
	}

	if len(report.Warnings) > 0 {
		fmt.Printf("\n%d malformed rows skipped:\n", len(report.Warnings))
		for _, w := range report.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}
}
