package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/edirooss/picam-panel/internal/config"
	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/edirooss/picam-panel/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseAssignments(t *testing.T) {
	kv, err := parseAssignments([]string{"framerate=60", "rtsp_host=", "level=4.2", "framerate=25", "rtsp_path=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"framerate": "25",
		"rtsp_host": "",
		"level":     "4.2",
		"rtsp_path": "a=b",
	}, kv)

	for _, bad := range []string{"framerate", "=60", " =60"} {
		_, err := parseAssignments([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestRenderStreamConfig_TextRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStreamConfig(&buf, streamconfig.Defaults(), false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(streamconfig.FieldNames()))
	assert.Contains(t, lines, "bitrate=6000000")
	assert.Contains(t, lines, "brightness=0")

	kv, err := parseAssignments(lines)
	require.NoError(t, err)
	back, err := streamconfig.PatchFromStrings(kv).Apply(streamconfig.StreamConfig{})
	require.NoError(t, err)
	assert.Equal(t, streamconfig.Defaults(), back)
}

func TestRenderStreamConfig_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStreamConfig(&buf, streamconfig.Defaults(), true))

	var got streamconfig.StreamConfig
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, streamconfig.Defaults(), got)
}

func TestRenderSettings(t *testing.T) {
	cfg := &config.Config{Env: "prod"}
	cfg.HTTP.Port = 8080
	cfg.Telemetry.SampleWindow = 300 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, renderSettings(&buf, cfg, "yaml"))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "prod", doc["env"])
	assert.Contains(t, buf.String(), "sample_window: 300ms")

	buf.Reset()
	require.NoError(t, renderSettings(&buf, cfg, "spew"))
	assert.Contains(t, buf.String(), "Env: (string) (len=4) \"prod\"")

	assert.Error(t, renderSettings(&buf, cfg, "toml"))
}

func TestRenderSnapshot(t *testing.T) {
	s := telemetry.Snapshot{CPUTotalPercent: 12.5, CPUCorePercent: []float64{10, 15}, RAMPercent: 40.2, TemperatureCelsius: 51.3}

	var buf bytes.Buffer
	require.NoError(t, renderSnapshot(&buf, s, false))
	out := buf.String()
	assert.Contains(t, out, "cpu0")
	assert.Contains(t, out, "cpu1")
	assert.Contains(t, out, "51.3 C")

	buf.Reset()
	require.NoError(t, renderSnapshot(&buf, s, true))
	assert.JSONEq(t, `{"cpu_percent":12.5,"cpu_cores":[10,15],"ram_percent":40.2,"temperature":51.3}`, buf.String())
}
