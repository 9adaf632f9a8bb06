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

package ffmpeg

import (
	"regexp"
	"strconv"
)

// Progress is one parsed snapshot of transcode progress, extracted from a
// single stderr line of the form:
//
//	frame=  123 fps= 45 q=28.0 size=    1024kB time=00:00:05.00 bitrate=1677.7kbits/s speed=1.5x
//
// Every field is independently optional; ffmpeg's stats format is a
// best-effort, version-fragile convention and nothing is guaranteed to be
// present on any given line.
type Progress struct {
	Frame       *int64
	FPS         *float64
	SizeKB      *float64
	TimeSeconds *float64
	Bitrate     *float64
	Speed       *float64
}

// Empty reports whether no token was recognized on the source line.
func (p Progress) Empty() bool {
	return p.Frame == nil && p.FPS == nil && p.SizeKB == nil &&
		p.TimeSeconds == nil && p.Bitrate == nil && p.Speed == nil
}

// ProgressFunc receives parsed progress events in stderr line order,
// synchronously with the read loop. A slow callback delays the next read;
// that is accepted backpressure.
type ProgressFunc func(Progress)

var (
	frameRegex   = regexp.MustCompile(`frame=\s*(\d+)`)
	fpsRegex     = regexp.MustCompile(`fps=\s*([\d.]+)`)
	sizeRegex    = regexp.MustCompile(`size=\s*([\d.]+)\s*[kKmM]?i?B`)
	timeRegex    = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
	bitrateRegex = regexp.MustCompile(`bitrate=\s*([\d.]+)\s*kbits/s`)
	speedRegex   = regexp.MustCompile(`speed=\s*([\d.]+)x`)
)

// ParseProgress extracts whatever recognized tokens appear on one stderr
// line. A line with no recognized token yields an empty Progress; callers
// drop those rather than forwarding them.
func ParseProgress(line string) Progress {
	var p Progress

	if m := frameRegex.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.Frame = &v
		}
	}
	if m := fpsRegex.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.FPS = &v
		}
	}
	if m := sizeRegex.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.SizeKB = &v
		}
	}
	if m := timeRegex.FindStringSubmatch(line); m != nil {
		hours, err1 := strconv.ParseFloat(m[1], 64)
		minutes, err2 := strconv.ParseFloat(m[2], 64)
		seconds, err3 := strconv.ParseFloat(m[3], 64)
		if err1 == nil && err2 == nil && err3 == nil {
			v := hours*3600 + minutes*60 + seconds
			p.TimeSeconds = &v
		}
	}
	if m := bitrateRegex.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Bitrate = &v
		}
	}
	if m := speedRegex.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Speed = &v
		}
	}

	return p
}
