// Package commands – health.go reports component status as JSON, suitable
// for scripting and monitoring.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type healthReport struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Store     string `json:"store"`
	Memory    string `json:"memory"`
	KeyLoaded bool   `json:"api_key_loaded"`
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check component health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := healthReport{Status: "ok", Store: "ok", Memory: "ok"}

			app, err := openApp(cmd)
			if err != nil {
				report.Status = "error"
				report.Store = err.Error()
			} else {
				defer app.Close()
				report.Model = app.LLM.Model()
				report.KeyLoaded = app.Cfg.LLM.APIKey != ""
			}

			out, jerr := json.Marshal(report)
			if jerr != nil {
				return jerr
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
