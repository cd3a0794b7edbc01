//go:build !ios && !android && (amd64 || arm64)

package videodec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m), "not valid JSON: %s", s)
	return m
}

func TestJSONMetadata(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	s := d.JSONMetadata()
	m := decodeJSON(t, s)

	assert.Equal(t, 3.0, m["durationSeconds"])
	// The best video stream's bit rate shadows the container's 800 kb/s.
	assert.Equal(t, float64(400_000), m["bitRate"])
	assert.Equal(t, float64(30), m["numFrames"])
	assert.Equal(t, 0.0, m["minPtsSecondsFromScan"])
	assert.Equal(t, 3.0, m["maxPtsSecondsFromScan"])
	assert.Equal(t, "h264", m["codec"])
	assert.Equal(t, float64(16), m["width"])
	assert.Equal(t, float64(8), m["height"])
	assert.Equal(t, float64(10), m["averageFps"])
	assert.Equal(t, float64(0), m["bestVideoStreamIndex"])
	assert.NotContains(t, m, "bestAudioStreamIndex")

	// Floats are rendered with six decimals.
	assert.Contains(t, s, `"durationSeconds": 3.000000`)
	assert.Contains(t, s, `"averageFps": 10.000000`)
}

func TestContainerJSONMetadata(t *testing.T) {
	d := openTestDecoder(t, testBackend())
	m := decodeJSON(t, d.ContainerJSONMetadata())

	assert.Equal(t, float64(1), m["numStreams"])
	assert.Equal(t, 3.0, m["durationSeconds"])
	assert.Equal(t, float64(800_000), m["bitRate"])
	assert.Equal(t, float64(0), m["bestVideoStreamIndex"])
	assert.NotContains(t, m, "codec")
}

func TestStreamJSONMetadata(t *testing.T) {
	d := openTestDecoder(t, testBackend())

	s, err := d.StreamJSONMetadata(0)
	require.NoError(t, err)
	m := decodeJSON(t, s)

	assert.Equal(t, "h264", m["codec"])
	assert.Equal(t, float64(30), m["numFramesFromScan"])
	assert.Equal(t, float64(30), m["numFrames"])
	assert.Equal(t, float64(400_000), m["bitRate"])
	assert.Equal(t, float64(16), m["width"])
	assert.Equal(t, float64(8), m["height"])
	assert.Equal(t, 3.0, m["maxPtsSecondsFromScan"])

	_, err = d.StreamJSONMetadata(3)
	assert.True(t, IsInvalidArgument(err))
	_, err = d.StreamJSONMetadata(-1)
	assert.True(t, IsInvalidArgument(err))
}

func TestMapToJSONOrderAndShape(t *testing.T) {
	s := mapToJSON(map[string]string{
		"zeta":  "1",
		"alpha": `"x"`,
		"mid":   "2.500000",
	})

	// Keys come out sorted, one per line, object wrapped in braces.
	want := strings.Join([]string{
		"{",
		`"alpha": "x",`,
		`"mid": 2.500000,`,
		`"zeta": 1`,
		"}",
	}, "\n")
	assert.Equal(t, want, s)
	decodeJSON(t, s)
}
