package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/nxbridge/pkg/api/types"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/device/schema"
	"github.com/urmzd/nxbridge/pkg/nx587e"
)

// bankController serves a primed bank and records commands.
type bankController struct {
	bank *nx587e.Bank

	mu       sync.Mutex
	commands []string
	sendErr  error
}

func newBankController(t *testing.T) *bankController {
	t.Helper()

	bank := nx587e.NewBank(nx587e.Limits{MaxZone: 2, MaxPartition: 1})
	for _, line := range []string{"ZN001FttbaillMx", "ZN002fttbaillbx", "PA1rAsCebpsx"} {
		msg, err := nx587e.Decode(line, bank.Limits())
		require.NoError(t, err)
		bank.Apply(msg, time.Now())
	}
	return &bankController{bank: bank}
}

func (b *bankController) ListDevices(ctx context.Context, kind device.Kind) ([]device.Device, error) {
	return b.bank.Devices(kind)
}

func (b *bankController) GetDevice(ctx context.Context, kind device.Kind, id int) (*device.Device, error) {
	d, err := b.bank.Snapshot(kind, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (b *bankController) Query(ctx context.Context, kind device.Kind, id int, attribute string) (device.Attribute, error) {
	return b.bank.Get(kind, id, attribute)
}

func (b *bankController) SendCommand(ctx context.Context, command string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.commands = append(b.commands, command)
	return nil
}

func (b *bankController) IsConnected() bool { return true }
func (b *bankController) Close()            {}
func (b *bankController) SessionID() string { return "test-session" }
func (b *bankController) Err() error        { return nil }

func (b *bankController) sent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.commands...)
}

// fanout is an in-memory EventSubscriber.
type fanout struct {
	mu   sync.Mutex
	subs []chan device.Event
}

func (f *fanout) Subscribe() chan device.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan device.Event, 8)
	f.subs = append(f.subs, ch)
	return ch
}

func (f *fanout) Unsubscribe(ch chan device.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == ch {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *fanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fanout) publish(ev device.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s <- ev
	}
}

type testEnv struct {
	router     *Router
	controller *bankController
	events     *fanout
	store      *db.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := db.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	ctrl := newBankController(t)
	require.NoError(t, store.Bootstrap(context.Background(), ctrl.bank.Limits()))

	events := &fanout{}
	return &testEnv{
		router:     NewRouter(ctrl, events, schema.NewValidator(), store.Labels(), store.Events()),
		controller: ctrl,
		events:     events,
		store:      store,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test-session", resp.Session)

	offline := NewRouter(device.NewNullController(), device.NewNullEventSubscriber(), schema.NewValidator(), nil, nil)
	w = httptest.NewRecorder()
	offline.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "disconnected", decode[types.HealthResponse](t, w).Controller)
}

func TestListDevices(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.ListDevicesResponse](t, w)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "Zone 1", resp.Devices[0].Name)

	fault, ok := resp.Devices[0].Attribute("fault")
	require.True(t, ok)
	assert.True(t, fault.Known)
	assert.True(t, fault.Value)

	w = env.do(t, http.MethodGet, "/api/v1/devices?kind=partitions", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[types.ListDevicesResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Partition 1", resp.Devices[0].Name)

	w = env.do(t, http.MethodGet, "/api/v1/devices?kind=doors", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDevice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/devices/zone/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[types.DeviceResponse](t, w).Device
	assert.Equal(t, device.KindZone, d.Kind)
	assert.Equal(t, 2, d.ID)
	assert.Equal(t, "Zone 2", d.Name)
	assert.Len(t, d.Attributes, 9)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/devices/zone/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/devices/zone/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/devices/door/1", "").Code)
}

func TestRenameDevice(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPatch, "/api/v1/devices/zone/1", `{"name":"Front door"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Front door", decode[types.DeviceResponse](t, w).Device.Name)

	w = env.do(t, http.MethodGet, "/api/v1/devices/zone/1", "")
	assert.Equal(t, "Front door", decode[types.DeviceResponse](t, w).Device.Name)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, "/api/v1/devices/zone/1", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, "/api/v1/devices/zone/7", `{"name":"x"}`).Code)

	noStore := NewRouter(env.controller, env.events, schema.NewValidator(), nil, nil)
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/devices/zone/1", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	noStore.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQueryAttribute(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/devices/partition/1/attributes/armed", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.AttributeResponse](t, w)
	assert.Equal(t, device.KindPartition, resp.Kind)
	assert.Equal(t, "armed", resp.Name)
	assert.True(t, resp.Known)
	assert.True(t, resp.Value)

	w = env.do(t, http.MethodGet, "/api/v1/devices/zone/1/attributes/memoryBypass", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[types.AttributeResponse](t, w).Value)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/devices/zone/1/attributes/armed", "").Code)
}

func TestSendCommand(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/commands", `{"command":"stay"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "queued", decode[types.CommandResponse](t, w).Status)

	w = env.do(t, http.MethodPost, "/api/v1/commands", `{"command":"123456"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"stay", "123456"}, env.controller.sent())

	for _, body := range []string{`{"command":"12"}`, `{"command":"stay","zone":1}`, `{}`, `not json`} {
		w = env.do(t, http.MethodPost, "/api/v1/commands", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	env.controller.sendErr = device.ErrInvalidCommand
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v1/commands", `{"command":"partial"}`).Code)

	env.controller.sendErr = nx587e.ErrStopped
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodPost, "/api/v1/commands", `{"command":"stay"}`).Code)
}

func TestEventHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, env.store.Events().Record(ctx, "s1", device.Event{Kind: device.KindZone, ID: 1, Attribute: "fault", Value: true, Timestamp: base}))
	require.NoError(t, env.store.Events().Record(ctx, "s1", device.Event{Kind: device.KindPartition, ID: 1, Attribute: "armed", Value: true, Timestamp: base.Add(time.Minute)}))

	w := env.do(t, http.MethodGet, "/api/v1/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.ListEventsResponse](t, w)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "armed", resp.Events[0].Attribute)

	w = env.do(t, http.MethodGet, "/api/v1/events?kind=zone&id=1&attribute=fault", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListEventsResponse](t, w).Count)

	w = env.do(t, http.MethodGet, "/api/v1/events?since=2024-01-02T03:05:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListEventsResponse](t, w).Count)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/events?limit=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/events?since=yesterday", "").Code)
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return env.events.count() == 1 }, time.Second, 5*time.Millisecond)
	env.events.publish(device.Event{Kind: device.KindZone, ID: 2, Attribute: "tamper", Value: true, Timestamp: time.Now()})

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if line == "event: zone\n" {
			break
		}
	}
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(data, "data: "))

	var ev device.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &ev))
	assert.Equal(t, "tamper", ev.Attribute)
	assert.Equal(t, 2, ev.ID)
}

func TestEventWebSocket(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return env.events.count() == 1 }, time.Second, 5*time.Millisecond)
	env.events.publish(device.Event{Kind: device.KindPartition, ID: 1, Attribute: "siren", Value: true, Timestamp: time.Now()})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev device.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, device.KindPartition, ev.Kind)
	assert.Equal(t, "siren", ev.Attribute)
	assert.True(t, ev.Value)
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths["/commands"], "post")
	assert.Contains(t, doc.Paths["/devices/{kind}/{id}"], "patch")

	w = env.do(t, http.MethodGet, "/docs", "")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/swagger/index.html", w.Header().Get("Location"))
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "probe-1")
	w = httptest.NewRecorder()
	env.router.Handler().ServeHTTP(w, req)
	assert.Equal(t, "probe-1", w.Header().Get(RequestIDHeader))
}
