/***************************************************************
 *
 * Copyright (C) 2026, Clipforge Project
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipforge/clipforge/config"
)

var (
	cfgFile    string
	debugMode  bool
	outputJSON bool
	dryRun     bool

	rootCmd = &cobra.Command{
		Use:   "clipforge",
		Short: "Process video and audio with ffmpeg",
		Long: `Clipforge wraps ffmpeg for common video and audio tasks:
cutting videos into segments, concatenation, audio extraction and
replacement, with a persistent job queue for background processing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			return config.InitLogging(debugMode)
		},
	}
)

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		log.Errorln("Command failed:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/clipforge/clipforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logs")
	rootCmd.PersistentFlags().StringP("log", "l", "", "Specified log output file")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results in JSON format")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")

	// Registered here so --help shows the flag; the check happens in main.
	rootCmd.PersistentFlags().Bool("version", false, "Print the version and exit")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	if err := viper.BindPFlag("Logging.LogLocation", rootCmd.PersistentFlags().Lookup("log")); err != nil {
		panic(err)
	}
}
