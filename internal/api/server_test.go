package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/statusled/internal/api/models"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/led"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, bus *events.Bus) *led.Manager {
	t.Helper()
	logger := testLogger()
	m := led.NewManager(nil, bus, logger)
	for _, name := range []string{"status", "power"} {
		d := led.NewDriver(led.Pin(name+"_led"), led.ActiveHigh, led.NewNoop(logger), led.NewTimerService(),
			led.WithName(name), led.WithLogger(logger))
		if err := d.Init(); err != nil {
			t.Fatalf("Init(%s) error = %v", name, err)
		}
		if err := m.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(m.Stop)
	return m
}

func newTestAPI(t *testing.T, opts *Options) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	s := newServer(api, opts)
	s.registerRoutes()
	return api
}

func decode[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type fakeSystemd struct {
	status     string
	err        error
	restarted  []string
	lastStatus string
}

func (f *fakeSystemd) GetServiceStatus(_ context.Context, name string) (string, error) {
	f.lastStatus = name
	return f.status, f.err
}

func (f *fakeSystemd) RestartService(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.restarted = append(f.restarted, name)
	return nil
}

func TestHealthAndVersion(t *testing.T) {
	api := newTestAPI(t, &Options{LEDs: newTestManager(t, nil)})

	resp := api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("health status = %d", resp.Code)
	}
	health := decode[models.HealthData](t, resp.Body)
	if health.Status != "ok" || health.LEDs != 2 {
		t.Errorf("health = %+v", health)
	}

	resp = api.Get("/api/version")
	if resp.Code != http.StatusOK {
		t.Fatalf("version status = %d", resp.Code)
	}
	if v := decode[models.VersionData](t, resp.Body); v.GoVersion == "" {
		t.Errorf("version = %+v", v)
	}
}

func TestLEDRoutes(t *testing.T) {
	api := newTestAPI(t, &Options{LEDs: newTestManager(t, nil)})

	resp := api.Get("/api/leds")
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	list := decode[models.LEDListData](t, resp.Body)
	if list.Count != 2 || list.LEDs[0].Name != "power" || list.LEDs[1].Pin != "status_led" {
		t.Errorf("list = %+v", list)
	}

	if resp := api.Get("/api/leds/missing"); resp.Code != http.StatusNotFound {
		t.Errorf("unknown LED status = %d, want 404", resp.Code)
	}

	resp = api.Post("/api/leds/status/on")
	if resp.Code != http.StatusOK {
		t.Fatalf("on status = %d: %s", resp.Code, resp.Body.String())
	}
	if got := decode[models.LEDData](t, resp.Body); got.State != "on" || got.Pattern != "" {
		t.Errorf("after on = %+v", got)
	}

	resp = api.Post("/api/leds/status/toggle")
	if got := decode[models.LEDData](t, resp.Body); got.State != "off" {
		t.Errorf("after toggle = %+v", got)
	}

	if resp := api.Post("/api/leds/missing/off"); resp.Code != http.StatusNotFound {
		t.Errorf("off unknown LED status = %d, want 404", resp.Code)
	}
}

func TestSetPatternRoute(t *testing.T) {
	api := newTestAPI(t, &Options{LEDs: newTestManager(t, nil)})

	resp := api.Put("/api/leds/status/pattern", map[string]any{"pattern": "sos"})
	if resp.Code != http.StatusOK {
		t.Fatalf("set pattern status = %d: %s", resp.Code, resp.Body.String())
	}
	if got := decode[models.LEDData](t, resp.Body); got.Pattern != "SOS" {
		t.Errorf("pattern = %q, want SOS", got.Pattern)
	}

	resp = api.Put("/api/leds/status/pattern", map[string]any{"pattern": "morse"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown pattern status = %d, want 422", resp.Code)
	}

	for _, body := range []map[string]any{{"pattern": nil}, {"pattern": ""}, {}} {
		resp = api.Put("/api/leds/status/pattern", body)
		if resp.Code != http.StatusOK {
			t.Fatalf("stop pattern %v status = %d: %s", body, resp.Code, resp.Body.String())
		}
		if got := decode[models.LEDData](t, resp.Body); got.Pattern != "" || got.State != "off" {
			t.Errorf("stop pattern %v = %+v", body, got)
		}
	}
}

func TestPatternRoutes(t *testing.T) {
	reloads := 0
	api := newTestAPI(t, &Options{
		LEDs: newTestManager(t, nil),
		ReloadHardware: func() error {
			reloads++
			if reloads > 1 {
				return errors.New("bad file")
			}
			return nil
		},
	})

	resp := api.Get("/api/patterns")
	if resp.Code != http.StatusOK {
		t.Fatalf("patterns status = %d", resp.Code)
	}
	list := decode[models.PatternListData](t, resp.Body)
	if list.Count != len(led.Builtins()) {
		t.Errorf("count = %d, want %d", list.Count, len(led.Builtins()))
	}
	found := false
	for _, p := range list.Patterns {
		if p.Name == "DOUBLE_BLINK" {
			found = true
			if p.PeriodMs != 1750 || len(p.Durations) != 4 {
				t.Errorf("DOUBLE_BLINK = %+v", p)
			}
		}
	}
	if !found {
		t.Error("DOUBLE_BLINK missing")
	}

	if resp := api.Post("/api/patterns/reload"); resp.Code != http.StatusOK {
		t.Errorf("reload status = %d", resp.Code)
	}
	if resp := api.Post("/api/patterns/reload"); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("failed reload status = %d, want 422", resp.Code)
	}
}

func TestStatusRouteWithoutBus(t *testing.T) {
	m := newTestManager(t, nil)
	m.SetStatusMapping("status", map[string]string{"connecting": "CONNECTING", "broken": "missing"})
	api := newTestAPI(t, &Options{LEDs: m})

	resp := api.Post("/api/status", map[string]any{"source": "network", "status": "connecting"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	got := decode[models.StatusData](t, resp.Body)
	if !got.Mapped || got.LED != "status" || got.Action != "CONNECTING" {
		t.Errorf("response = %+v", got)
	}
	d, _ := m.Get("status")
	if d.Status().Pattern != "CONNECTING" {
		t.Errorf("pattern = %q, want CONNECTING", d.Status().Pattern)
	}

	resp = api.Post("/api/status", map[string]any{"source": "network", "status": "unknown"})
	if got := decode[models.StatusData](t, resp.Body); got.Mapped {
		t.Errorf("unmapped status reported as mapped: %+v", got)
	}

	if resp := api.Post("/api/status", map[string]any{"source": "x", "status": "broken"}); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("broken mapping status = %d, want 422", resp.Code)
	}
	if resp := api.Post("/api/status", map[string]any{"source": "x"}); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing status field = %d, want 422", resp.Code)
	}
}

func TestStatusRoutePublishes(t *testing.T) {
	bus := events.New()
	received := make(chan events.StatusChangedEvent, 1)
	unsub := bus.Subscribe(func(e events.StatusChangedEvent) { received <- e })
	defer unsub()

	api := newTestAPI(t, &Options{LEDs: newTestManager(t, bus), EventBus: bus})

	resp := api.Post("/api/status", map[string]any{"source": "uplink", "status": "lost"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d", resp.Code)
	}

	select {
	case e := <-received:
		if e.Source != "uplink" || e.Status != "lost" {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("StatusChangedEvent not published")
	}
}

func TestLoggingRoute(t *testing.T) {
	api := newTestAPI(t, &Options{})

	resp := api.Put("/api/logging/led", map[string]any{"level": "debug"})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if resp := api.Put("/api/logging/led", map[string]any{"level": "loud"}); resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid level status = %d, want 422", resp.Code)
	}
}

func TestSystemdRoutes(t *testing.T) {
	fake := &fakeSystemd{status: "active"}
	api := newTestAPI(t, &Options{Systemd: fake})

	resp := api.Get("/api/systemd/status")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	got := decode[models.SystemdServiceStatus](t, resp.Body)
	if got.Status != "active" || got.Service != defaultServiceName || fake.lastStatus != defaultServiceName {
		t.Errorf("status = %+v", got)
	}

	if resp := api.Post("/api/systemd/restart"); resp.Code != http.StatusOK {
		t.Errorf("restart status = %d", resp.Code)
	}
	if len(fake.restarted) != 1 {
		t.Errorf("restarted = %v", fake.restarted)
	}

	fake.err = errors.New("dbus down")
	if resp := api.Get("/api/systemd/status"); resp.Code != http.StatusInternalServerError {
		t.Errorf("failing status = %d, want 500", resp.Code)
	}
}

func TestRoutesWithoutServices(t *testing.T) {
	api := newTestAPI(t, &Options{})
	if resp := api.Get("/api/leds"); resp.Code != http.StatusNotFound {
		t.Errorf("/api/leds without LED service = %d, want 404", resp.Code)
	}
	if resp := api.Get("/api/health"); resp.Code != http.StatusOK {
		t.Errorf("health = %d", resp.Code)
	}
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func TestBasicAuth(t *testing.T) {
	server := NewServer(&Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		LEDs:         newTestManager(t, nil),
		PrometheusHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health is public", "/api/health", "", http.StatusOK},
		{"metrics are public", "/metrics", "", http.StatusOK},
		{"missing credentials", "/api/leds", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/leds", "Bearer abc", http.StatusUnauthorized},
		{"bad encoding", "/api/leds", "Basic !!!", http.StatusUnauthorized},
		{"wrong password", "/api/leds", "Basic " + basicAuth("admin", "nope"), http.StatusUnauthorized},
		{"valid", "/api/leds", "Basic " + basicAuth("admin", "secret"), http.StatusOK},
		{"query auth", "/api/leds?auth=" + basicAuth("admin", "secret"), "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Code == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate")
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(&Options{CORSOrigin: "http://panel.local"})

	req := httptest.NewRequest(http.MethodOptions, "/api/leds", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://panel.local" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		path   string
		status int
		want   slog.Level
	}{
		{http.MethodGet, "/api/health", 200, slog.LevelDebug},
		{http.MethodOptions, "/api/leds", 204, slog.LevelDebug},
		{http.MethodPost, "/api/leds/status/on", 200, slog.LevelInfo},
		{http.MethodGet, "/api/leds/x", 404, slog.LevelWarn},
		{http.MethodGet, "/api/systemd/status", 500, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.path, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s %s %d) = %v, want %v", tt.method, tt.path, tt.status, got, tt.want)
		}
	}
}

func TestEventStream(t *testing.T) {
	bus := events.New()
	server := NewServer(&Options{LEDs: newTestManager(t, bus), EventBus: bus})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	waitFor := func(want string) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", want)
				}
				if strings.Contains(line, want) {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	waitFor("event: led-state-changed")
	waitFor(`"action":"snapshot"`)

	// Give the handler time to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.StatusChangedEvent{Source: "sensor", Status: "hot"})
	waitFor("event: status-changed")
}

func TestLEDErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{led.ErrUnknownLED, http.StatusNotFound},
		{led.ErrUnknownPattern, http.StatusUnprocessableEntity},
		{led.ErrInvalidPattern, http.StatusUnprocessableEntity},
		{led.ErrNotInitialized, http.StatusConflict},
		{led.ErrInvalidPinConfiguration, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		var se huma.StatusError
		if !errors.As(ledError(tt.err), &se) {
			t.Fatalf("ledError(%v) is not a huma.StatusError", tt.err)
		}
		if se.GetStatus() != tt.want {
			t.Errorf("ledError(%v) status = %d, want %d", tt.err, se.GetStatus(), tt.want)
		}
	}
}
