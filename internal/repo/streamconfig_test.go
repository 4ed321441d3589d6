package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *StreamConfigRepository {
	t.Helper()
	return NewStreamConfigRepository(zap.NewNop(), filepath.Join(t.TempDir(), "stream_config.json"))
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	r := newTestRepo(t)

	cfg, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, streamconfig.Defaults(), cfg)

	_, err = os.Stat(r.Path())
	assert.True(t, os.IsNotExist(err), "load must not create the file")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	r := newTestRepo(t)

	want := streamconfig.StreamConfig{
		Bitrate: 1, Denoise: "off", Codec: "h264", LibavFormat: "flv", Profile: "main", HDR: "auto",
		Level: "4.2", Framerate: 25, Width: 1280, Height: 720, Intra: 50, AVSync: -20000,
		AWB: "daylight", RTSPHost: "192.0.2.5", RTSPPort: 554, RTSPPath: "cam/one", Nice: 5,
		Sharpness: 0.5, Contrast: 1.25, Brightness: -0.1, Saturation: 0, Exposure: "sport",
	}
	require.NoError(t, r.Save(want))

	got, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_ReplacesFileWithoutLeftovers(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Save(streamconfig.Defaults()))
	require.NoError(t, r.Save(streamconfig.Defaults()))

	entries, err := os.ReadDir(filepath.Dir(r.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "stream_config.json", entries[0].Name())

	var m map[string]any
	data, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, len(streamconfig.FieldNames()))
}

func TestLoad_PartialFileFilledFromDefaults(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(r.Path(), []byte(`{"framerate": 24, "codec": "mjpeg"}`), 0o644))

	cfg, err := r.Load()
	require.NoError(t, err)

	want := streamconfig.Defaults()
	want.Framerate = 24
	want.Codec = "mjpeg"
	assert.Equal(t, want, cfg)
}

func TestLoad_CorruptFileIsStorageError(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(r.Path(), []byte(`{"bitrate": 6000`), 0o644))

	_, err := r.Load()
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "decode", serr.Op)
}

func TestUpdate_Scenario(t *testing.T) {
	r := newTestRepo(t)

	got, err := r.Update(streamconfig.Patch{
		"framerate": json.RawMessage(`60`),
		"exposure":  json.RawMessage(`"long"`),
	})
	require.NoError(t, err)

	want := streamconfig.Defaults()
	want.Framerate = 60
	want.Exposure = "long"
	assert.Equal(t, want, got)

	loaded, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}

func TestUpdate_ValidationLeavesFileUnchanged(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Update(streamconfig.Patch{"width": json.RawMessage(`1280`)})
	require.NoError(t, err)
	before, err := os.ReadFile(r.Path())
	require.NoError(t, err)

	_, err = r.Update(streamconfig.Patch{
		"height":  json.RawMessage(`720`),
		"bitrate": json.RawMessage(`"not-a-number"`),
	})
	var verr *streamconfig.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "bitrate", verr.Field)

	after, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	cfg, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
}

func TestUpdate_ValidationOnFreshStoreWritesNothing(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Update(streamconfig.Patch{"bitrate": json.RawMessage(`"not-a-number"`)})
	require.Error(t, err)

	_, statErr := os.Stat(r.Path())
	assert.True(t, os.IsNotExist(statErr))

	cfg, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, streamconfig.Defaults(), cfg)
}

func TestUpdate_CorruptFileNotOverwritten(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, os.WriteFile(r.Path(), []byte("garbage"), 0o644))

	_, err := r.Update(streamconfig.Patch{"framerate": json.RawMessage(`60`)})
	var serr *StorageError
	require.ErrorAs(t, err, &serr)

	data, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))
}

func TestSave_MissingDirectoryIsStorageError(t *testing.T) {
	r := NewStreamConfigRepository(nil, filepath.Join(t.TempDir(), "missing", "stream_config.json"))

	err := r.Save(streamconfig.Defaults())
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "write", serr.Op)
}

func TestUpdate_OnlyPatchedFieldsChange(t *testing.T) {
	r := newTestRepo(t)
	base := streamconfig.Defaults()
	base.Codec = "h264"
	base.Contrast = 1.4
	require.NoError(t, r.Save(base))

	got, err := r.Update(streamconfig.Patch{"rtsp_port": json.RawMessage(`"9000"`), "nice": json.RawMessage(`0`)})
	require.NoError(t, err)

	want := base
	want.RTSPPort = 9000
	want.Nice = 0
	assert.Equal(t, want, got)
}

func TestChangedFields(t *testing.T) {
	a := streamconfig.Defaults()
	b := a
	b.Width = 640
	b.Exposure = "night"
	assert.Equal(t, []string{"width", "exposure"}, changedFields(a, b))
}

func TestWatch_ReportsSavedRecord(t *testing.T) {
	r := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan streamconfig.StreamConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, 20*time.Millisecond, func(_ context.Context, cfg streamconfig.StreamConfig) {
			got <- cfg
		})
	}()

	want := streamconfig.Defaults()
	want.Framerate = 15

	// The watcher registers asynchronously; keep saving until it reports.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			assert.Equal(t, want, cfg)
			cancel()
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, r.Save(want))
		case <-deadline:
			t.Fatal("no change reported")
		}
	}
}
