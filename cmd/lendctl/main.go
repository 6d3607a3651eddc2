package main

import (
	"fmt"
	"log"
	"os"

	"github.com/lending-service/cmd/api/config"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "lendctl",
		Short:         "Operate the lending service database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newMigrateCmd(loadConfig),
		newSeedCmd(loadConfig),
		newReconcileCmd(loadConfig),
		newTokenCmd(loadConfig),
	)
	return root
}
