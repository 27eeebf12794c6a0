package main

import (
	"log"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFiles   []string
}

func newRootCommand() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "agendabot",
		Short:        "Personal agenda assistant for Telegram and Discord.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&ro.configPath, "config", "c", "config.yaml", "path to the YAML config file")
	cmd.PersistentFlags().StringSliceVar(&ro.envFiles, "env", []string{".env", "env/.env"}, ".env files to load secrets from")

	addServe(cmd, ro)
	addImportCSV(cmd, ro)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
