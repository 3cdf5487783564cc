package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelot/recyclerie/internal/service"
)

func newRetryCmd() *cobra.Command {
	var (
		proposalPath string
		model        string
	)
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Relance uniquement l'étape LLM sur les catégories non résolues d'une proposition",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := os.ReadFile(proposalPath)
			if err != nil {
				return fmt.Errorf("lecture de la proposition: %w", err)
			}
			var proposal service.Proposal
			if err := json.Unmarshal(data, &proposal); err != nil {
				return fmt.Errorf("proposition invalide: %w", err)
			}
			if len(proposal.Unmapped) == 0 {
				cmd.Println("Rien à relancer: aucune catégorie non résolue.")
				return nil
			}

			result, err := a.analyzer.AnalyzeLLMOnly(cmd.Context(), proposal.Unmapped, service.AnalyzeOptions{ModelID: model})
			if err != nil {
				return err
			}

			if proposal.Mappings == nil {
				proposal.Mappings = map[string]service.CategoryMapping{}
			}
			for name, m := range result.Mappings {
				proposal.Mappings[name] = m
			}
			proposal.Unmapped = result.Unmapped
			proposal.Statistics.LLMStatistics = result.Statistics
			proposal.Statistics.MappedCategories = len(proposal.Mappings)
			proposal.Statistics.UnmappedCategories = len(proposal.Unmapped)

			if err := writeJSON(proposalPath, &proposal); err != nil {
				return err
			}
			cmd.Printf("%d catégorie(s) résolue(s) par le LLM, %d toujours non résolue(s)\n",
				len(result.Mappings), len(result.Unmapped))
			if result.Statistics.LastError != "" {
				cmd.Printf("Dernière erreur LLM: %s\n", result.Statistics.LastError)
			}
			cmd.Printf("Proposition mise à jour dans %s\n", proposalPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&proposalPath, "proposal", "proposal.json", "fichier de proposition à mettre à jour")
	cmd.Flags().StringVar(&model, "model", "", "modèle LLM (remplace la configuration)")
	return cmd
}
