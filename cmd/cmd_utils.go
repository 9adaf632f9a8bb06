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
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/clipforge/clipforge/config"
	"github.com/clipforge/clipforge/database"
	"github.com/clipforge/clipforge/ffmpeg"
	"github.com/clipforge/clipforge/profiles"
)

// openStore opens the configured job database. Callers own Close.
func openStore() (*database.Store, error) {
	store, err := database.Open(config.DatabaseLocation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open job database")
	}
	return store, nil
}

// loadProfiles loads the configured profiles file, or the built-in set when
// none is configured.
func loadProfiles() (*profiles.Set, error) {
	if path := config.ProfilesFile(); path != "" {
		return profiles.Load(path)
	}
	return profiles.LoadDefault()
}

// requireTools fails early with installation hints when ffmpeg/ffprobe are
// absent, instead of erroring halfway into an operation.
func requireTools() error {
	if err := ffmpeg.VerifyTools(); err != nil {
		return errors.Wrap(err, "ffmpeg is not installed or not found in PATH (install it via your package manager, e.g. 'apt install ffmpeg' or 'brew install ffmpeg')")
	}
	return nil
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	fmt.Println(string(data))
	return nil
}

// progressPrinter writes an in-place percentage line to stdout. Finish ends
// the line once any progress was printed.
type progressPrinter struct {
	printed bool
}

func (p *progressPrinter) Update(percent float64) {
	p.printed = true
	fmt.Printf("\rProgress: %3.0f%%", percent)
}

func (p *progressPrinter) Finish() {
	if p.printed {
		fmt.Println()
	}
}

// formatDuration renders elapsed job time compactly (42s, 3.5m, 1.2h).
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

// submittedJobHint tells the user how to follow an async job.
func submittedJobHint(jobID uint) {
	fmt.Printf("Job submitted with ID %d\n", jobID)
	fmt.Printf("Monitor it with:\n")
	fmt.Printf("  clipforge job show %d\n", jobID)
	fmt.Printf("  clipforge job logs %d\n", jobID)
	fmt.Println("Make sure workers are running: clipforge worker run")
}
