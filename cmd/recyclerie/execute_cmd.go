package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelot/recyclerie/internal/service"
)

func newExecuteCmd() *cobra.Command {
	var (
		csvPath     string
		mappingPath string
		userID      string
		closePoste  bool
	)
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Importe les lignes du CSV avec le mapping approuvé",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			csvData, err := os.ReadFile(csvPath)
			if err != nil {
				return fmt.Errorf("lecture du CSV: %w", err)
			}
			mappingData, err := os.ReadFile(mappingPath)
			if err != nil {
				return fmt.Errorf("lecture du mapping: %w", err)
			}

			report, err := a.executor.Execute(cmd.Context(), csvData, mappingData, userID)
			if err != nil {
				return err
			}

			total, err := a.executor.Reception.CountLignes(cmd.Context(), report.TicketID)
			if err != nil {
				return fmt.Errorf("comptage des lignes: %w", err)
			}
			printImportReport(cmd, report, total)

			if closePoste {
				if err := a.executor.Reception.ClosePoste(cmd.Context(), report.PosteID); err != nil {
					return fmt.Errorf("fermeture du poste: %w", err)
				}
				cmd.Printf("Poste %s fermé\n", report.PosteID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "export CSV à importer")
	cmd.Flags().StringVar(&mappingPath, "mapping", "mapping.json", "fichier de mapping approuvé")
	cmd.Flags().StringVar(&userID, "user", "", "identifiant de l'utilisateur opérant l'import")
	cmd.Flags().BoolVar(&closePoste, "close-poste", false, "ferme le poste de réception après l'import")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printImportReport(cmd *cobra.Command, r *service.ImportReport, ticketTotal int) {
	cmd.Printf("Postes: %d créé(s), %d réutilisé(s)\n", r.PostesCreated, r.PostesReused)
	cmd.Printf("Tickets: %d créé(s)\n", r.TicketsCreated)
	cmd.Printf("Lignes importées: %d (ticket %s: %d ligne(s))\n", r.LignesImported, r.TicketID, ticketTotal)
	cmd.Printf("Erreurs: %d\n", r.TotalErrors)
	for _, e := range r.Errors {
		cmd.Printf("  ! %s\n", e)
	}
}
