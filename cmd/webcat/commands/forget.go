package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(forgetCmd)
}

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Clears the remembered username, password and partners.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := getEnv(ctx).Store(ctx)
		if err != nil {
			return err
		}
		count, err := store.Forget(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Forgot %d saved answers.\n", count)
		return nil
	},
}
