package main

import (
	"github.com/spf13/cobra"

	"github.com/avelot/recyclerie/internal/config"
)

func newConfigCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Affiche la configuration résolue, --write la persiste dans le fichier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			cmd.Printf("database.path               = %s\n", cfg.Database.Path)
			cmd.Printf("llm.provider                = %s\n", cfg.LLM.Provider)
			cmd.Printf("llm.api_key_env             = %s\n", cfg.LLM.APIKeyEnv)
			cmd.Printf("llm.model                   = %s\n", cfg.LLM.Model)
			cmd.Printf("llm.base_url                = %s\n", cfg.LLM.BaseURL)
			cmd.Printf("llm.batch_size              = %d\n", cfg.LLM.BatchSize)
			cmd.Printf("import.confidence_threshold = %d\n", cfg.Import.ConfidenceThreshold)
			if config.ResolveAPIKey(cfg) == "" {
				cmd.Println("\nAucune clé API résolue: la résolution LLM sera ignorée.")
			}

			if write {
				if err := config.Save(cfg); err != nil {
					return err
				}
				cmd.Println("\nConfiguration écrite.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "écrit le fichier de configuration avec les valeurs résolues")
	return cmd
}
