package main

import (
	"github.com/spf13/cobra"
)

func newCategoriesCmd() *cobra.Command {
	var (
		showAll   bool
		showCache bool
	)
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Liste les catégories connues et le cache de résolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.catRepo.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cats {
				if !c.Active && !showAll {
					continue
				}
				marker := " "
				if !c.Active {
					marker = "archivée"
				}
				cmd.Printf("%-36s  %-20s %s\n", c.ID, c.Name, marker)
			}

			if showCache {
				entries, err := a.cache.List(cmd.Context())
				if err != nil {
					return err
				}
				cmd.Println()
				for _, e := range entries {
					cmd.Printf("%-30s → %-36s  %-16s %.0f%%\n",
						e.SourceNameNormalized, e.CategoryID, e.Provider, e.Confidence)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "all", false, "inclure les catégories archivées")
	cmd.Flags().BoolVar(&showCache, "cache", false, "afficher le cache de résolution")
	return cmd
}
