package commands

import (
	"context"
	"os"

	"github.com/mkarchuk/gamestore/internal/shell"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive storefront shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sh := shell.New(a.cfg, a.accounts, a.storefront, a.purchases, os.Stdin, os.Stdout)
	sh.Run(ctx)
	return nil
}
