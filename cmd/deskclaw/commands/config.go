// Package commands – config.go shows the effective configuration with
// secrets masked.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				cfgPath = config.DefaultPath()
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			fmt.Printf("Config file:  %s\n", cfgPath)
			fmt.Printf("Model:        %s (%s)\n", cfg.LLM.Model, cfg.LLM.BaseURL)
			fmt.Printf("API key:      %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Printf("Database:     %s\n", cfg.Store.Path)
			fmt.Printf("Memory:       %s\n", cfg.Memory.Path)
			fmt.Printf("Weather key:  %s\n", maskSecret(cfg.Weather.APIKey))
			fmt.Printf("News key:     %s\n", maskSecret(cfg.News.APIKey))
			fmt.Printf("Stocks key:   %s\n", maskSecret(cfg.Stocks.APIKey))
			fmt.Printf("Spoken mode:  %v\n", cfg.TTS.Enabled)
			return nil
		},
	}
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
