package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/ctrconsole/internal/localterm"
	"pkt.systems/ctrconsole/internal/logx"
	"pkt.systems/ctrconsole/internal/terminal"
	"pkt.systems/ctrconsole/schema"
)

func newAttachCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "attach <container>",
		Short: "Open an interactive console to a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, eng, err := loadEngine(ctx, cfgPath)
			if err != nil {
				return err
			}
			id := schema.ContainerID(args[0])
			info, err := eng.InspectContainer(ctx, id)
			if err != nil {
				return err
			}
			log := logx.WithContainer(ctx, info.ID)
			if info.Status != schema.StatusRunning {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "container %s is %s, waiting for it to start\n", info.Name, info.Status)
			}

			local, err := localterm.Open(os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(logx.ContextWithContainerLogger(ctx, log, info.ID))
			defer cancel()

			layout := terminal.TextLayout()
			layout.Rows = cfg.Terminal.Rows
			props := terminal.PropsFor(info)
			if sz, err := local.Size(); err == nil {
				props.Width = sz.Width
			}
			w := terminal.NewWidget(eng, local, props, terminal.Options{
				Layout: layout,
				OnError: func(err error) {
					_ = local.Write(fmt.Sprintf("\r\n\x1b[31m%v\x1b[m\r\n", err))
				},
				OnClose: cancel,
			})
			go func() {
				for width := range local.Widths(ctx) {
					w.Resize(width)
				}
			}()
			go terminal.Follow(ctx, eng, w, info.ID, followInterval(cfg))

			log.Debug("attach start", "status", info.Status, "tty", info.TTY)
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
