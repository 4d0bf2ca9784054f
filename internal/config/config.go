// Package config loads the provisioning configuration: which images go onto
// which partitions, the boot entries to register, and where the external
// tools live.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/cajunjon/TriBootForge/internal/common"
)

type imagesConfig struct {
	WindowsWIM string `toml:"windows_wim"`
	LinuxISO   string `toml:"linux_iso"`
	RescueISO  string `toml:"rescue_iso"`
}

type bootConfig struct {
	WindowsLabel  string `toml:"windows_label"`
	LinuxLabel    string `toml:"linux_label"`
	RescueLabel   string `toml:"rescue_label"`
	WindowsLoader string `toml:"windows_loader"`
	LinuxLoader   string `toml:"linux_loader"`
	RescueLoader  string `toml:"rescue_loader"`
}

type toolsConfig struct {
	Parted     string `toml:"parted"`
	Dd         string `toml:"dd"`
	Wimapply   string `toml:"wimapply"`
	Efibootmgr string `toml:"efibootmgr"`
}

type Config struct {
	Images imagesConfig `toml:"images"`
	Boot   bootConfig   `toml:"boot"`
	Tools  toolsConfig  `toml:"tools"`

	// ESPSize overrides the fixed EFI system partition size, e.g.
	// "300 MB" or "512 MiB".
	ESPSize string `toml:"esp_size"`

	// WindowsImageIndex selects the WIM volume to apply.
	WindowsImageIndex int `toml:"windows_image_index"`
}

// ESPSizeBytes returns the configured ESP size in bytes, or fallback when
// no override is set.
func (c *Config) ESPSizeBytes(fallback uint64) (uint64, error) {
	if c.ESPSize == "" {
		return fallback, nil
	}
	size, err := common.DataSizeToUint64(c.ESPSize)
	if err != nil {
		return 0, fmt.Errorf("invalid esp_size: %w", err)
	}
	return size, nil
}

// LoadConfig reads file and fills in defaults for everything it does not
// set.
func LoadConfig(file string) (*Config, error) {
	// set defaults
	config := Config{
		Images: imagesConfig{
			WindowsWIM: "/var/lib/tribootforge/windows.wim",
			LinuxISO:   "/var/lib/tribootforge/linux.iso",
			RescueISO:  "/var/lib/tribootforge/rescue.iso",
		},
		Boot: bootConfig{
			WindowsLabel:  "Windows",
			LinuxLabel:    "Linux",
			RescueLabel:   "Rescue",
			WindowsLoader: `\EFI\Microsoft\Boot\bootmgfw.efi`,
			LinuxLoader:   `\EFI\linux\grubx64.efi`,
			RescueLoader:  `\EFI\rescue\grubx64.efi`,
		},
		Tools: toolsConfig{
			Parted:     "parted",
			Dd:         "dd",
			Wimapply:   "wimapply",
			Efibootmgr: "efibootmgr",
		},
		WindowsImageIndex: 1,
	}

	_, err := toml.DecodeFile(file, &config)
	if err != nil {
		// Return error only when we failed to decode the file.
		// A non-existing config isn't an error, use defaults in this case.
		if !os.IsNotExist(err) {
			return nil, err
		}

		logrus.Info("Configuration file not found, using defaults")
	}

	if config.WindowsImageIndex < 1 {
		return nil, fmt.Errorf("windows_image_index must be positive, got %d", config.WindowsImageIndex)
	}

	return &config, nil
}
