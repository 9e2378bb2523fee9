package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oficina/chat/cmd/api/command"
)

func main() {
	root := &cobra.Command{
		Use:          "oficina",
		Short:        "Oficina workspace chat API",
		SilenceUsage: true,
	}

	root.AddCommand(command.NewServeCommand(), command.NewMigrateCommand(), command.NewSeedCommand(), command.NewChatCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
