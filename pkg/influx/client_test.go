package influx

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/nxbridge/pkg/config"
	"github.com/urmzd/nxbridge/pkg/device"
)

func TestConnectDisabled(t *testing.T) {
	t.Parallel()

	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	require.True(t, errors.Is(err, ErrDisabled))
}

func TestEventPoint(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	p := eventPoint(device.Event{Kind: device.KindZone, ID: 7, Attribute: "fault", Value: true, Timestamp: ts})

	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, ts, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, map[string]string{"kind": "zone", "id": "7", "attribute": "fault"}, tags)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, true, fields["value"])
	assert.EqualValues(t, 1, fields["state"])
}

// fakeInflux answers pings and records line-protocol writes.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/ping":
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func TestWriteEventFlushesOnClose(t *testing.T) {
	t.Parallel()

	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c, err := Connect(config.InfluxDBConfig{
		Enabled:       true,
		URL:           srv.URL,
		Org:           "home",
		Bucket:        "nxbridge",
		BatchSize:     10,
		FlushInterval: 60000,
	})
	require.NoError(t, err)

	c.WriteEvent(device.Event{Kind: device.KindPartition, ID: 1, Attribute: "armed", Value: true, Timestamp: time.Now()})
	c.Close()
	c.Close()
	c.WriteEvent(device.Event{Kind: device.KindPartition, ID: 1, Attribute: "armed", Value: false, Timestamp: time.Now()})

	require.Eventually(t, func() bool {
		return strings.Contains(fake.body(), "panel_event,attribute=armed,id=1,kind=partition state=1i,value=true")
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, fake.body(), "value=false")
}

func TestConnectUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: url, Bucket: "b"})
	require.True(t, errors.Is(err, ErrConnectionFailed), err)
}
