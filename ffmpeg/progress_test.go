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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgress(t *testing.T) {
	t.Run("full-stats-line", func(t *testing.T) {
		line := "frame=100 fps=30.0 time=00:00:04.00 bitrate=2000.5kbits/s speed=1.0x"
		p := ParseProgress(line)

		require.NotNil(t, p.Frame)
		assert.Equal(t, int64(100), *p.Frame)
		require.NotNil(t, p.FPS)
		assert.Equal(t, 30.0, *p.FPS)
		require.NotNil(t, p.TimeSeconds)
		assert.Equal(t, 4.0, *p.TimeSeconds)
		require.NotNil(t, p.Bitrate)
		assert.Equal(t, 2000.5, *p.Bitrate)
		require.NotNil(t, p.Speed)
		assert.Equal(t, 1.0, *p.Speed)
		assert.Nil(t, p.SizeKB)
	})

	t.Run("padded-stats-line", func(t *testing.T) {
		line := "frame=  123 fps= 45 q=28.0 size=    1024kB time=00:00:05.00 bitrate=1677.7kbits/s speed=1.5x"
		p := ParseProgress(line)

		require.NotNil(t, p.Frame)
		assert.Equal(t, int64(123), *p.Frame)
		require.NotNil(t, p.FPS)
		assert.Equal(t, 45.0, *p.FPS)
		require.NotNil(t, p.SizeKB)
		assert.Equal(t, 1024.0, *p.SizeKB)
		require.NotNil(t, p.TimeSeconds)
		assert.Equal(t, 5.0, *p.TimeSeconds)
		require.NotNil(t, p.Bitrate)
		assert.Equal(t, 1677.7, *p.Bitrate)
		require.NotNil(t, p.Speed)
		assert.Equal(t, 1.5, *p.Speed)
	})

	t.Run("time-conversion-preserves-fraction", func(t *testing.T) {
		p := ParseProgress("time=01:15:30.50")
		require.NotNil(t, p.TimeSeconds)
		assert.Equal(t, 4530.5, *p.TimeSeconds)
	})

	t.Run("unrecognized-line-is-empty", func(t *testing.T) {
		for _, line := range []string{
			"",
			"Press [q] to stop, [?] for help",
			"Stream mapping:",
			"  Stream #0:0 -> #0:0 (h264 (native) -> h264 (libx264))",
		} {
			p := ParseProgress(line)
			assert.True(t, p.Empty(), "expected empty event for %q", line)
		}
	})

	t.Run("partial-tokens", func(t *testing.T) {
		p := ParseProgress("fps=24.5 speed=0.98x")
		assert.Nil(t, p.Frame)
		require.NotNil(t, p.FPS)
		assert.Equal(t, 24.5, *p.FPS)
		require.NotNil(t, p.Speed)
		assert.Equal(t, 0.98, *p.Speed)
		assert.False(t, p.Empty())
	})

	t.Run("size-unit-variants", func(t *testing.T) {
		p := ParseProgress("size=     512KiB")
		require.NotNil(t, p.SizeKB)
		assert.Equal(t, 512.0, *p.SizeKB)
	})

	t.Run("long-duration-time", func(t *testing.T) {
		p := ParseProgress("time=100:00:01.25")
		require.NotNil(t, p.TimeSeconds)
		assert.Equal(t, 360001.25, *p.TimeSeconds)
	})
}
