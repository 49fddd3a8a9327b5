// Package commands – setup.go implements the first-run wizard. It writes
// config.yaml and offers to keep the API key in the OS keyring instead of
// the file.
package commands

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard that creates your config.yaml. Asks for
the model endpoint, API key and optional feature keys. The API key can be
stored in the OS keyring so it never touches the config file.

Examples:
  deskclaw setup`,
		RunE: runSetup,
	}
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	apiKey := cfg.LLM.APIKey
	useKeyring := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Description("OpenAI-compatible endpoint root").
				Value(&cfg.LLM.BaseURL),
			huh.NewInput().
				Title("Chat model").
				Value(&cfg.LLM.Model),
			huh.NewInput().
				Title("API key").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewConfirm().
				Title("Store the API key in the OS keyring?").
				Description("Recommended; keeps the key out of config.yaml").
				Value(&useKeyring),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenWeather API key (optional)").
				Value(&cfg.Weather.APIKey),
			huh.NewInput().
				Title("NewsAPI key (optional)").
				Value(&cfg.News.APIKey),
			huh.NewInput().
				Title("Alpha Vantage API key (optional)").
				Value(&cfg.Stocks.APIKey),
			huh.NewConfirm().
				Title("Read replies aloud?").
				Value(&cfg.TTS.Enabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	if apiKey != "" {
		if useKeyring {
			if err := config.StoreKeyring(config.KeyringLLMKey, apiKey); err != nil {
				fmt.Println("Keyring unavailable, keeping the key in config.yaml.")
				cfg.LLM.APIKey = apiKey
			} else {
				fmt.Println("API key stored in the OS keyring.")
				cfg.LLM.APIKey = ""
			}
		} else {
			cfg.LLM.APIKey = apiKey
		}
	}

	if err := config.Save(cfg, cfgPath); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", cfgPath)
	fmt.Println(`Run "deskclaw chat" to start talking.`)
	return nil
}
