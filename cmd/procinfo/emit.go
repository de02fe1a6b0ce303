package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HerbHall/procinfo/internal/config"
	"github.com/HerbHall/procinfo/internal/metlog"
	"github.com/HerbHall/procinfo/internal/procinfo"
	"github.com/HerbHall/procinfo/pkg/models"
)

func newEmitCmd(a *app) *cobra.Command {
	var (
		pid  int32
		cats map[models.Category]*bool
	)
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Collect metrics and emit them through the configured metlog sender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sender, closeSender, err := newSender(a)
			if err != nil {
				return err
			}
			defer closeSender()

			client := metlog.New(sender, a.cfg.GetString("metlog.logger"))
			plugin, err := procinfo.NewFromConfig(a.cfg, a.logger)
			if err != nil {
				return err
			}
			if err := procinfo.Register(client, plugin); err != nil {
				return err
			}

			params := map[string]any{}
			if pid != 0 {
				params[procinfo.PIDKey] = pid
			}
			for c, on := range cats {
				if *on {
					params[string(c)] = true
				}
			}
			return client.Invoke(cmd.Context(), procinfo.MethodName, params)
		},
	}
	cmd.Flags().Int32Var(&pid, "pid", 0, "target process id (default: this process)")
	cats = categoryFlags(cmd.Flags())
	return cmd
}

// newSender builds the sender named by metlog.sender.
func newSender(a *app) (metlog.Sender, func(), error) {
	switch name := a.cfg.GetString("metlog.sender"); name {
	case "zap":
		return metlog.NewZapSender(a.logger.Named("metlog")), func() {}, nil
	case "mqtt":
		return newMQTTSender(a.cfg.Sub("metlog.mqtt"))
	case "none":
		return metlog.NopSender{}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown metlog.sender %q (want zap, mqtt or none)", name)
	}
}

func newMQTTSender(cfg config.Config) (metlog.Sender, func(), error) {
	timeout := cfg.GetDuration("timeout")
	client, err := metlog.ConnectMQTT(cfg.GetString("broker"), "procinfo-"+strconv.Itoa(os.Getpid()), timeout)
	if err != nil {
		return nil, nil, err
	}
	sender := metlog.NewMQTTSender(client, cfg.GetString("topic"), byte(cfg.GetInt("qos")), timeout)
	return sender, func() { client.Disconnect(250) }, nil
}
