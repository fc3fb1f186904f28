// Command sommelier 是酒款推荐的命令行入口。
//
//	sommelier recommend --user alice
//	sommelier demo --clusters 3,7
//	sommelier feedback --user alice --index 42 --accept
//	sommelier catalog import --from wines.json --to catalog.db
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/sommelier/config"
	"github.com/rushteam/sommelier/logging"
	"github.com/rushteam/sommelier/service"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sommelier",
	Short:         "Cluster-based wine recommender",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		logging.Init(c.Log)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: $SOMMELIER_CONFIG or ./sommelier.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")

	rootCmd.AddCommand(recommendCmd, demoCmd, feedbackCmd, catalogCmd)
}

// openService 按当前配置创建服务，调用方负责 Close。
func openService(ctx context.Context) (*service.Service, error) {
	return service.New(ctx, cfg, logging.Logger())
}

func logger() zerolog.Logger {
	return logging.Component("cli")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		l := logger()
		l.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
