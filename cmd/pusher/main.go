package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/semmidev/pusher/internal/app"
	"github.com/semmidev/pusher/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "pusher",
		Short:         "Push local backup files to object storage and remove them once stored",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return run(cmd.Context(), v, configPath)
		},
	}

	bindFlags(cmd.Flags(), v)

	return cmd
}

// bindFlags registers the CLI flags; flags that mirror config keys take
// precedence over the file and environment once set.
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("config", "configs/config.yaml", "path to config file (empty: environment only)")
	flags.String("schedule", "", "cron spec with seconds; keeps running and pushes on every tick")
	flags.Bool("sort", false, "push files in name order instead of directory order")

	_ = v.BindPFlag("push.schedule", flags.Lookup("schedule"))
	_ = v.BindPFlag("push.sort_entries", flags.Lookup("sort"))
}

func run(ctx context.Context, v *viper.Viper, configPath string) error {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return application.Run(ctx)
}
