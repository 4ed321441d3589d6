package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/edirooss/picam-panel/internal/service"
	"github.com/edirooss/picam-panel/internal/telemetry"
	"github.com/edirooss/picam-panel/web"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() { gin.SetMode(gin.TestMode) }

type memStore struct{ cfg streamconfig.StreamConfig }

func (s *memStore) Load() (streamconfig.StreamConfig, error) { return s.cfg, nil }
func (s *memStore) Update(p streamconfig.Patch) (streamconfig.StreamConfig, error) {
	next, err := p.Apply(s.cfg)
	if err != nil {
		return streamconfig.StreamConfig{}, err
	}
	s.cfg = next
	return next, nil
}

type idleStream struct{}

func (idleStream) Running(context.Context) bool  { return false }
func (idleStream) Start(context.Context) error   { return nil }
func (idleStream) Stop(context.Context) error    { return nil }
func (idleStream) Restart(context.Context) error { return nil }

type zeroSampler struct{}

func (zeroSampler) Sample(context.Context) telemetry.Snapshot {
	return telemetry.Snapshot{CPUCorePercent: []float64{}}
}

type noReboot struct{}

func (noReboot) Schedule() bool       { return true }
func (noReboot) Delay() time.Duration { return time.Second }

type lan struct{}

func (lan) DiscoverLANAddress(context.Context) string { return "192.168.1.50" }

type noAddrs struct{}

func (noAddrs) GetLocalAddrs(context.Context) ([]service.IPv4Address, error) { return nil, nil }

func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)

	store := &memStore{cfg: streamconfig.Defaults()}
	r := NewRouter(zap.NewNop(), Options{
		SessionSecret:     "test-secret",
		MaxConcurrentStat: 2,
		Templates:         tmpl,
	}, Deps{
		Store:      store,
		Stream:     idleStream{},
		Sampler:    zeroSampler{},
		Rebooter:   noReboot{},
		LAN:        lan{},
		LocalAddrs: noAddrs{},
		Unit:       "pi_camera_stream",
	})
	return r, store
}

// issueCSRF fetches a token and returns it with the session cookie.
func issueCSRF(t *testing.T, r *gin.Engine) (string, []*http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body struct {
		CSRF string `json:"csrf"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.CSRF, 64)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return body.CSRF, cookies
}

func postConfig(r *gin.Engine, body, token string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Ping(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRouter_MutationRequiresCSRF(t *testing.T) {
	r, store := newTestRouter(t)
	token, cookies := issueCSRF(t, r)

	// no token
	w := postConfig(r, `{"framerate":60}`, "", cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// token without the session it belongs to
	w = postConfig(r, `{"framerate":60}`, token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// wrong token
	w = postConfig(r, `{"framerate":60}`, strings.Repeat("0", 64), cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 30, store.cfg.Framerate)

	w = postConfig(r, `{"framerate":60}`, token, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 60, store.cfg.Framerate)
}

func TestRouter_CSRFTokenStablePerSession(t *testing.T) {
	r, _ := newTestRouter(t)
	token, cookies := issueCSRF(t, r)

	req := httptest.NewRequest(http.MethodGet, "/api/csrf", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"csrf":"`+token+`"}`, w.Body.String())
}

func TestRouter_Index(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "rtsp://192.168.1.50:8554/kali1080")
	assert.Contains(t, body, `name="framerate" value="30"`)
	assert.Contains(t, body, "pi_camera_stream")
}

func TestRouter_Stats(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cpu_percent":0,"cpu_cores":[],"ram_percent":0,"temperature":0}`, w.Body.String())
}
