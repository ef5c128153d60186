// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the geopublish CLI: it exports
// geographic datasets to public file formats and publishes them to an
// open-data catalog.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/geopublish/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// secretDefault returns fallback when set, otherwise the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Get(key, "")
}

// rootCmd is the base command for the geopublish CLI.
var rootCmd = &cobra.Command{
	Use:   "geopublish",
	Short: "Export geographic datasets and publish them to an open-data catalog",
	Long: `geopublish reads a YAML job list of geographic datasets, exports each one
to the requested public formats (shapefile, CAD, KML, GeoJSON, CSV, metadata,
file geodatabase), and reconciles the matching dataset records on an
open-data catalog.

Each dataset is staged into a temp file geodatabase first; every other
format is derived from that staged copy. Export and catalog publication can
run together or separately per job.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
		s, err := secrets.Load(".secrets/", log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./geopublish.yaml or ~/.config/geopublish/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("geopublish")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "geopublish"))
		}
	}

	viper.SetEnvPrefix("GEOPUBLISH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
