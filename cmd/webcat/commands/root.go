package commands

import (
	"context"
	"fmt"
	"os"

	"webcat-submit/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: the nearest webcat.json5)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

var rootCmd = &cobra.Command{
	Use:           "webcat",
	Short:         "webcat submits coursework to Web-CAT and shows the graded results.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		config, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		return getEnv(cmd.Context()).init(cmd.Context(), config)
	},
}

func ExecuteContext(ctx context.Context) {
	env := &Env{}
	err := rootCmd.ExecuteContext(withEnv(ctx, env))
	env.Close(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
