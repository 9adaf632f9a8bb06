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

// Package profiles loads and validates named encoding profiles from YAML.
// A profile is a bundle of ffmpeg codec settings (codecs, bitrates,
// resolution, preset) that operations apply when re-encoding output.
package profiles

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYaml []byte

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile configuration")
)

var validVideoCodecs = map[string]bool{
	"libx264": true, "libx265": true,
	"h264_videotoolbox": true, "hevc_videotoolbox": true,
	"h264_nvenc": true, "hevc_nvenc": true,
	"h264_qsv": true, "hevc_qsv": true,
	"libvpx": true, "libvpx-vp9": true, "libaom-av1": true,
	"copy": true,
}

var validAudioCodecs = map[string]bool{
	"aac": true, "mp3": true, "opus": true, "flac": true,
	"libmp3lame": true, "copy": true,
}

var validPresets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true,
	"faster": true, "fast": true, "medium": true,
	"slow": true, "slower": true, "veryslow": true,
}

// Profile is one named encoding configuration. Resolution and FPS accept
// the literal "source" to keep the input's values.
type Profile struct {
	Name          string `yaml:"-"`
	Description   string `yaml:"description"`
	VideoCodec    string `yaml:"video_codec"`
	VideoBitrate  string `yaml:"video_bitrate"`
	Resolution    string `yaml:"resolution"`
	AudioCodec    string `yaml:"audio_codec"`
	AudioBitrate  string `yaml:"audio_bitrate"`
	Preset        string `yaml:"preset"`
	CRF           *int   `yaml:"crf"`
	FPS           string `yaml:"fps"`
	HardwareAccel string `yaml:"hardware_accel"`
}

// Validate checks the profile's settings against the known codec, preset,
// and quality constraints. All violations are reported at once.
func (p *Profile) Validate() error {
	var violations []string

	if !validVideoCodecs[p.VideoCodec] {
		violations = append(violations, fmt.Sprintf("unknown video codec %q", p.VideoCodec))
	}
	if !validAudioCodecs[p.AudioCodec] {
		violations = append(violations, fmt.Sprintf("unknown audio codec %q", p.AudioCodec))
	}
	if p.Preset != "" && !validPresets[p.Preset] {
		violations = append(violations, fmt.Sprintf("unknown preset %q", p.Preset))
	}
	if p.CRF != nil && (*p.CRF < 0 || *p.CRF > 51) {
		violations = append(violations, fmt.Sprintf("crf %d out of range 0-51", *p.CRF))
	}
	if p.VideoCodec != "copy" && p.VideoCodec != "" && p.VideoBitrate == "" && p.CRF == nil {
		violations = append(violations, "either video_bitrate or crf is required for non-copy video codecs")
	}
	if p.Resolution != "" && p.Resolution != "source" {
		if _, _, ok := parseResolution(p.Resolution); !ok {
			violations = append(violations, fmt.Sprintf("resolution %q must be 'source' or WIDTHxHEIGHT", p.Resolution))
		}
	}
	if p.FPS != "" && p.FPS != "source" {
		if fps, err := strconv.Atoi(p.FPS); err != nil || fps <= 0 {
			violations = append(violations, fmt.Sprintf("fps %q must be 'source' or a positive integer", p.FPS))
		}
	}

	if len(violations) > 0 {
		return errors.Wrapf(ErrInvalidProfile, "profile %q: %s", p.Name, strings.Join(violations, "; "))
	}
	return nil
}

// ResolutionSize parses the profile's resolution. ok is false when the
// profile keeps the source resolution.
func (p *Profile) ResolutionSize() (width, height int, ok bool) {
	if p.Resolution == "" || p.Resolution == "source" {
		return 0, 0, false
	}
	return parseResolution(p.Resolution)
}

// UsesHardwareAccel reports whether encoding goes through a hardware
// encoder.
func (p *Profile) UsesHardwareAccel() bool {
	switch p.VideoCodec {
	case "h264_videotoolbox", "hevc_videotoolbox",
		"h264_nvenc", "hevc_nvenc",
		"h264_qsv", "hevc_qsv":
		return true
	}
	return p.HardwareAccel != ""
}

// CodecArgs builds the ffmpeg codec and quality flags this profile
// translates to, without input or output arguments.
func (p *Profile) CodecArgs() []string {
	args := []string{"-c:v", p.VideoCodec}

	if p.CRF != nil {
		args = append(args, "-crf", strconv.Itoa(*p.CRF))
	} else if p.VideoBitrate != "" {
		args = append(args, "-b:v", p.VideoBitrate)
	}
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	if width, height, ok := p.ResolutionSize(); ok {
		args = append(args, "-s", fmt.Sprintf("%dx%d", width, height))
	}
	if p.FPS != "" && p.FPS != "source" {
		args = append(args, "-r", p.FPS)
	}

	args = append(args, "-c:a", p.AudioCodec)
	if p.AudioCodec != "copy" {
		args = append(args, "-b:a", p.AudioBitrate)
	}
	return args
}

// EncodeArgs builds the ffmpeg argument list applying this profile to one
// input/output pair.
func (p *Profile) EncodeArgs(inputPath, outputPath string) []string {
	args := append([]string{"-i", inputPath}, p.CodecArgs()...)
	return append(args, outputPath)
}

// Summary renders a human-readable description for display.
func (p *Profile) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", p.Name)
	fmt.Fprintf(&b, "Description: %s\n\n", p.Description)
	fmt.Fprintf(&b, "Video:\n  Codec: %s\n", p.VideoCodec)
	if p.VideoBitrate != "" {
		fmt.Fprintf(&b, "  Bitrate: %s\n", p.VideoBitrate)
	}
	if p.CRF != nil {
		fmt.Fprintf(&b, "  CRF: %d\n", *p.CRF)
	}
	fmt.Fprintf(&b, "  Resolution: %s\n", p.Resolution)
	if p.Preset != "" {
		fmt.Fprintf(&b, "  Preset: %s\n", p.Preset)
	}
	if p.FPS != "" {
		fmt.Fprintf(&b, "  FPS: %s\n", p.FPS)
	}
	if p.HardwareAccel != "" {
		fmt.Fprintf(&b, "  Hardware Accel: %s\n", p.HardwareAccel)
	}
	fmt.Fprintf(&b, "\nAudio:\n  Codec: %s\n  Bitrate: %s\n", p.AudioCodec, p.AudioBitrate)
	return b.String()
}

// Set is an immutable collection of validated profiles plus the configured
// default. Construct one with Load or LoadDefault; Sets are safe for
// concurrent readers.
type Set struct {
	profiles    map[string]*Profile
	defaultName string
}

type profilesFile struct {
	DefaultProfile string              `yaml:"default_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
}

// Load reads and validates a profiles YAML file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read profiles file %s", path)
	}
	set, err := parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load profiles from %s", path)
	}
	log.Debugf("Loaded %d profiles from %s", len(set.profiles), path)
	return set, nil
}

// LoadDefault returns the built-in profile set.
func LoadDefault() (*Set, error) {
	return parse(defaultsYaml)
}

func parse(data []byte) (*Set, error) {
	var file profilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse profiles YAML")
	}
	if len(file.Profiles) == 0 {
		return nil, errors.New("profiles file defines no profiles")
	}

	for name, profile := range file.Profiles {
		profile.Name = name
		if profile.Resolution == "" {
			profile.Resolution = "source"
		}
		if profile.FPS == "" {
			profile.FPS = "source"
		}
		if err := profile.Validate(); err != nil {
			return nil, err
		}
	}

	defaultName := file.DefaultProfile
	if defaultName == "" {
		return nil, errors.New("profiles file does not set default_profile")
	}
	if _, ok := file.Profiles[defaultName]; !ok {
		return nil, errors.Errorf("default profile %q is not defined", defaultName)
	}

	return &Set{profiles: file.Profiles, defaultName: defaultName}, nil
}

// Get looks a profile up by name.
func (s *Set) Get(name string) (*Profile, error) {
	profile, ok := s.profiles[name]
	if !ok {
		return nil, errors.Wrapf(ErrProfileNotFound, "%q (available: %s)",
			name, strings.Join(s.Names(), ", "))
	}
	return profile, nil
}

// Default returns the set's configured default profile.
func (s *Set) Default() *Profile {
	return s.profiles[s.defaultName]
}

// Names returns all profile names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseResolution(resolution string) (width, height int, ok bool) {
	parts := strings.Split(resolution, "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	width, errW := strconv.Atoi(parts[0])
	height, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}
