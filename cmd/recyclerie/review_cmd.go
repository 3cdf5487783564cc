package main

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/avelot/recyclerie/internal/service"
	"github.com/avelot/recyclerie/internal/tui"
)

func newReviewCmd() *cobra.Command {
	var (
		proposalPath string
		outPath      string
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Révision interactive d'une proposition avant import",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(proposalPath)
			if err != nil {
				return fmt.Errorf("lecture de la proposition: %w", err)
			}
			var proposal service.Proposal
			if err := json.Unmarshal(data, &proposal); err != nil {
				return fmt.Errorf("proposition invalide: %w", err)
			}

			p := tea.NewProgram(tui.NewReview(&proposal, outPath))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("interface de révision: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&proposalPath, "proposal", "proposal.json", "fichier de proposition à réviser")
	cmd.Flags().StringVar(&outPath, "out", "mapping.json", "fichier de mapping approuvé à écrire")
	return cmd
}
