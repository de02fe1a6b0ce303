package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/procinfo/internal/config"
	"github.com/HerbHall/procinfo/pkg/models"
)

// app carries state shared by subcommands after the root pre-run.
type app struct {
	configPath string
	cfg        *config.ViperConfig
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "procinfo",
		Short:        "Collect per-process OS metrics from outside the target process",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to configuration file")

	root.AddCommand(newCollectCmd(a), newEmitCmd(a), newVersionCmd())
	return root
}

func (a *app) init() error {
	v, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = config.New(v)

	level, err := zapcore.ParseLevel(a.cfg.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if a.logger, err = zcfg.Build(); err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

// categoryFlags registers one boolean flag per category on fs.
func categoryFlags(fs *pflag.FlagSet) map[models.Category]*bool {
	flags := make(map[models.Category]*bool)
	for _, c := range models.AllCategories() {
		flags[c] = fs.Bool(string(c), false, "collect "+string(c)+" metrics")
	}
	return flags
}

func categorySet(flags map[models.Category]*bool) models.CategorySet {
	set := models.CategorySet{}
	for c, on := range flags {
		if *on {
			set[c] = true
		}
	}
	return set
}
