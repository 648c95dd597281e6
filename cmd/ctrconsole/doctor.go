package main

import (
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/ctrconsole/internal/appconfig"
	"pkt.systems/pslog"
)

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration and engine connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = path
			}
			logger.Info("doctor start", "config", configPath)

			_, eng, err := loadEngine(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			logger.Info("doctor engine ok", "address", eng.Address(), "prefix", eng.VersionPrefix())

			images, err := eng.ListImages(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("doctor images ok", "count", len(images))
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
