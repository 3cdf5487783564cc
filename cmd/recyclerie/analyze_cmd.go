package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelot/recyclerie/internal/service"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		csvPath   string
		outPath   string
		threshold float64
		model     string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse un export CSV et propose un mapping de catégories",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := os.ReadFile(csvPath)
			if err != nil {
				return fmt.Errorf("lecture du CSV: %w", err)
			}

			if !cmd.Flags().Changed("threshold") && a.cfg.Import.ConfidenceThreshold > 0 {
				threshold = float64(a.cfg.Import.ConfidenceThreshold)
			}

			proposal, err := a.analyzer.Analyze(cmd.Context(), data, service.AnalyzeOptions{
				ConfidenceThreshold: threshold,
				ModelID:             model,
			})
			if err != nil {
				return err
			}

			if err := writeJSON(outPath, proposal); err != nil {
				return err
			}
			printProposalSummary(cmd, proposal, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "export CSV à analyser")
	cmd.Flags().StringVar(&outPath, "out", "proposal.json", "fichier de proposition à écrire")
	cmd.Flags().Float64Var(&threshold, "threshold", service.DefaultConfidenceThreshold, "seuil de confiance du matching flou (0-100)")
	cmd.Flags().StringVar(&model, "model", "", "modèle LLM (remplace la configuration)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func printProposalSummary(cmd *cobra.Command, p *service.Proposal, outPath string) {
	st := p.Statistics
	cmd.Printf("Lignes: %d total, %d valides, %d en erreur\n", st.TotalLines, st.ValidLines, st.ErrorLines)
	cmd.Printf("Catégories: %d uniques, %d mappées, %d non résolues\n", st.UniqueCategories, st.MappedCategories, st.UnmappedCategories)
	if st.Attempted {
		cmd.Printf("LLM (%s, %s): %d/%d lots réussis, %d catégories mappées\n",
			st.ProviderUsed, st.ModelUsed, st.BatchesSucceeded, st.BatchesTotal, st.LLMStatistics.MappedCategories)
		if st.LastError != "" {
			cmd.Printf("Dernière erreur LLM: %s\n", st.LastError)
		}
	}
	for _, e := range p.Errors {
		cmd.Printf("  ! %s\n", e)
	}
	cmd.Printf("Proposition écrite dans %s\n", outPath)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("écriture de %s: %w", path, err)
	}
	return nil
}
