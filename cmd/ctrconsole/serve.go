package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/ctrconsole"
	"pkt.systems/ctrconsole/httpapi"
	"pkt.systems/ctrconsole/internal/appconfig"
	"pkt.systems/ctrconsole/internal/terminal"
	"pkt.systems/ctrconsole/sshserver"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var noSSH bool
	var noHTTP bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve consoles over SSH and HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, eng, err := loadEngine(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			var opts []ctrconsole.ServerOption
			if !noHTTP {
				opts = append(opts, ctrconsole.WithHTTP())
			}
			if !noSSH {
				opts = append(opts, ctrconsole.WithSSH())
			}
			server, err := ctrconsole.New(toServerConfig(cfg), eng, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&noSSH, "no-ssh", false, "disable the SSH console")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "disable the HTTP API and websocket console")
	return cmd
}

func toServerConfig(cfg appconfig.Config) ctrconsole.ServerConfig {
	return ctrconsole.ServerConfig{
		HTTP: httpapi.Config{
			Addr:     cfg.HTTP.Addr,
			BasePath: cfg.HTTP.BasePath,
			Layout: terminal.Layout{
				Padding: cfg.Terminal.Padding,
				Rows:    cfg.Terminal.Rows,
			},
			FollowInterval: followInterval(cfg),
		},
		SSH: sshserver.Config{
			Addr:               cfg.SSH.Addr,
			HostKeyPath:        cfg.SSH.HostKeyPath,
			AuthorizedKeysPath: cfg.SSH.AuthorizedKeysPath,
		},
		Rows:           cfg.Terminal.Rows,
		FollowInterval: followInterval(cfg),
	}
}
