package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/nxbridge/pkg/config"
	"github.com/urmzd/nxbridge/pkg/db"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/trace"
)

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, setupLogging(config.LoggingConfig{Level: "debug", Format: "json"}, &buf))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	err := setupLogging(config.LoggingConfig{Level: "loud", Format: "console"}, &buf)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestTraceFilter(t *testing.T) {
	f, err := traceFilter("abc", "out", "2026-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "abc", f.Session)
	assert.Equal(t, trace.DirectionOut, f.Direction)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), f.Since.UTC())

	_, err = traceFilter("", "sideways", "")
	assert.Error(t, err)

	_, err = traceFilter("", "", "yesterday")
	assert.Error(t, err)
}

func TestPrintTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.trace")
	rec, err := trace.NewFileRecorder(path)
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec.Record(trace.Record{Timestamp: ts, Session: "s1", Direction: trace.DirectionOut, Data: "Q001"})
	rec.Record(trace.Record{Timestamp: ts, Session: "s1", Direction: trace.DirectionIn, Data: "ZN001Fttbaillb"})
	rec.Record(trace.Record{Timestamp: ts, Session: "s1", Direction: trace.DirectionOut, Data: "1234"})
	require.NoError(t, rec.Close())

	var out bytes.Buffer
	require.NoError(t, printTrace(&out, path, trace.Filter{Direction: trace.DirectionOut}))

	text := out.String()
	assert.Contains(t, text, `out s1 "Q001"`)
	assert.NotContains(t, text, "ZN001")
	assert.NotContains(t, text, "1234")
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "nxbridge.yaml")
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, writeDefaultConfig(cmd, path, false))
	assert.Contains(t, out.String(), "Wrote "+path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Panel, loaded.Panel)

	assert.Error(t, writeDefaultConfig(cmd, path, false))
	assert.NoError(t, writeDefaultConfig(cmd, path, true))
}

func TestOpenStoreAndSink(t *testing.T) {
	ctx := context.Background()
	c := config.Default()
	c.Database.Path = filepath.Join(t.TempDir(), "nxbridge.db")

	store, err := openStore(ctx, c)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	labels, err := store.Labels().List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, labels, c.Panel.MaxZone+c.Panel.MaxPartition)

	sink := &eventSink{history: store.Events()}
	sink.handle(device.Event{Kind: device.KindZone, ID: 1, Attribute: "fault", Value: true, Timestamp: time.Now()})
	sink.setSession("session-1")
	sink.handle(device.Event{Kind: device.KindZone, ID: 1, Attribute: "fault", Value: false, Timestamp: time.Now()})

	records, err := store.Events().List(ctx, db.EventFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "session-1", records[0].Session)
	assert.False(t, records[0].Value)
	assert.Equal(t, "", records[1].Session)
}

func TestOpenPanelDisabled(t *testing.T) {
	p, err := openPanel(config.Default(), &eventSink{}, true)
	require.NoError(t, err)
	defer p.Close()

	assert.False(t, p.controller.IsConnected())
	assert.Nil(t, p.Done())
	assert.NoError(t, p.Err())
}
