package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cajunjon/TriBootForge/internal/audit"
	"github.com/cajunjon/TriBootForge/internal/common"
	"github.com/cajunjon/TriBootForge/internal/config"
	"github.com/cajunjon/TriBootForge/internal/forge"
)

const defaultConfigFile = "/etc/tribootforge/forge.toml"

var (
	deviceSelector string
	dryRun         bool
	verbose        bool
	configPath     string
)

var forgeCmd = &cobra.Command{
	Use:          "tribootforge",
	Short:        "Partition a disk and install the tri-boot layout onto it",
	Example:      "  tribootforge --device nvme --dry-run\n  tribootforge --device sata --config ./forge.toml",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}

		if !common.IsStringInSortedSlice(forge.DeviceSelectors(), deviceSelector) {
			return fmt.Errorf("unknown device %q, expected one of: %s",
				deviceSelector, strings.Join(forge.DeviceSelectors(), ", "))
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		summary := &audit.MemorySink{}
		report, err := forge.Provision(forge.Options{
			DeviceSelector: deviceSelector,
			DryRun:         dryRun,
			Config:         cfg,
			Logger:         logrus.StandardLogger(),
			Sink:           audit.Tee{audit.NewLogSink(logrus.StandardLogger()), summary},
		})

		for idx, res := range summary.Results() {
			line := fmt.Sprintf("%3d  %-16s %s", idx, res.Outcome.ToString(), res.Command)
			if res.Reason != "" {
				line += "  (" + res.Reason + ")"
			}
			fmt.Println(line)
		}

		if err != nil {
			if report != nil && report.HaltedAt >= 0 {
				return fmt.Errorf("provisioning halted at action %d: %w", report.HaltedAt, err)
			}
			return err
		}

		fmt.Printf("completed %d actions on /dev/%s\n", len(report.Results), report.Plan.Device.ID)
		return nil
	},
}

func main() {
	forgeCmd.Flags().StringVarP(&deviceSelector, "device", "d", "", "target device (nvme or sata)")
	forgeCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "record every intended action without touching the disk")
	forgeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	forgeCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigFile, "configuration file")
	_ = forgeCmd.MarkFlagRequired("device")
	if err := forgeCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
