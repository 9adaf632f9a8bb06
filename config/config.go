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

// Package config wires viper-backed configuration: defaults, an optional
// YAML config file, and CLIPFORGE_* environment overrides, plus logrus
// setup shared by every command.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "CLIPFORGE"

// Init loads configuration with the usual precedence: defaults, then the
// config file (explicit path, or clipforge.yaml under the user config
// dir), then CLIPFORGE_* environment variables. A missing config file is
// not an error; a malformed one is.
func Init(configFile string) error {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", configFile)
		}
		log.Debugln("Loaded config file:", configFile)
		return nil
	}

	viper.SetConfigName("clipforge")
	viper.SetConfigType("yaml")
	if configDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(configDir, "clipforge"))
	}
	viper.AddConfigPath("$HOME/.clipforge")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "failed to read config file")
		}
		// Fine to run on defaults alone.
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("Database.Location", defaultDataPath("jobs.db"))
	viper.SetDefault("Profiles.File", "")
	viper.SetDefault("Worker.Count", 2)
	viper.SetDefault("Worker.PollInterval", "2s")
	viper.SetDefault("Job.Timeout", "0")
	viper.SetDefault("Logging.Level", "info")
	viper.SetDefault("Logging.LogLocation", "")
	viper.SetDefault("Output.Dir", ".")
}

func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".clipforge", name)
}

// InitLogging configures the global logrus logger from the resolved
// configuration. debug forces the debug level regardless of config.
func InitLogging(debug bool) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		levelText := viper.GetString("Logging.Level")
		level, err := log.ParseLevel(levelText)
		if err != nil {
			return errors.Wrapf(err, "unknown log level %q", levelText)
		}
		log.SetLevel(level)
	}

	if logLocation := viper.GetString("Logging.LogLocation"); logLocation != "" {
		if err := os.MkdirAll(filepath.Dir(logLocation), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create log directory for %s", logLocation)
		}
		f, err := os.OpenFile(logLocation, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
		if err != nil {
			return errors.Wrapf(err, "failed to open log file %s", logLocation)
		}
		log.SetOutput(f)
	}
	return nil
}

// DatabaseLocation is the path of the SQLite job store.
func DatabaseLocation() string {
	return viper.GetString("Database.Location")
}

// ProfilesFile is an optional path to a custom profiles YAML; empty means
// the built-in set.
func ProfilesFile() string {
	return viper.GetString("Profiles.File")
}

// WorkerCount is the number of concurrent job executors.
func WorkerCount() int {
	return viper.GetInt("Worker.Count")
}

// WorkerPollInterval is how often an idle worker re-checks the queue.
func WorkerPollInterval() time.Duration {
	return viper.GetDuration("Worker.PollInterval")
}

// JobTimeout bounds each ffmpeg invocation; zero disables the bound.
func JobTimeout() time.Duration {
	return viper.GetDuration("Job.Timeout")
}

// OutputDir is the default directory for operation outputs.
func OutputDir() string {
	return viper.GetString("Output.Dir")
}
