package nx587e

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urmzd/nxbridge/pkg/device"
)

func mustDecode(t *testing.T, line string, limits Limits) Message {
	t.Helper()
	msg, err := Decode(line, limits)
	require.NoError(t, err)
	return msg
}

// TestBankStartsUnknown has every attribute unknown before any message.
func TestBankStartsUnknown(t *testing.T) {
	t.Parallel()

	b := NewBank(testLimits)
	a, err := b.Get(device.KindZone, 16, "fault")
	require.NoError(t, err)
	require.False(t, a.Known)
	require.True(t, a.Changed.IsZero())
}

// TestBankPriming stores first observations without events.
func TestBankPriming(t *testing.T) {
	t.Parallel()

	b := NewBank(testLimits)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	events := b.Apply(mustDecode(t, "ZN003FtTbaIllMx", testLimits), t0)
	require.Empty(t, events)

	a, err := b.Get(device.KindZone, 3, "fault")
	require.NoError(t, err)
	require.True(t, a.Known)
	require.True(t, a.Value)
	require.Equal(t, t0, a.Changed)

	a, err = b.Get(device.KindZone, 3, "tamper")
	require.NoError(t, err)
	require.True(t, a.Known)
	require.False(t, a.Value)
}

// TestBankChangeEmitsOneEvent emits exactly one event per flip.
func TestBankChangeEmitsOneEvent(t *testing.T) {
	t.Parallel()

	b := NewBank(testLimits)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	t2 := t1.Add(time.Minute)

	b.Apply(mustDecode(t, "PA1RasCebpsx", testLimits), t0)

	events := b.Apply(mustDecode(t, "PA1rasCebpSx", testLimits), t1)
	require.Equal(t, []device.Event{
		{Kind: device.KindPartition, ID: 1, Attribute: "ready", Value: false, Timestamp: t1},
		{Kind: device.KindPartition, ID: 1, Attribute: "siren", Value: true, Timestamp: t1},
	}, events)

	// Same values again: nothing changes, timestamps stay put.
	require.Empty(t, b.Apply(mustDecode(t, "PA1rasCebpSx", testLimits), t2))
	a, err := b.Get(device.KindPartition, 1, "siren")
	require.NoError(t, err)
	require.Equal(t, t1, a.Changed)
}

// TestBankPartialPriming primes attributes independently.
func TestBankPartialPriming(t *testing.T) {
	t.Parallel()

	limits := Limits{MaxZone: 1}
	b := NewBank(limits)

	// memoryBypass is not covered by this line and stays unknown.
	b.Apply(mustDecode(t, "ZN001Fttbaillb", limits), time.Now())
	a, err := b.Get(device.KindZone, 1, "memoryBypass")
	require.NoError(t, err)
	require.False(t, a.Known)

	// First sighting of memoryBypass primes silently, fault flips.
	events := b.Apply(mustDecode(t, "ZN001fttbaillMx", limits), time.Now())
	require.Len(t, events, 1)
	require.Equal(t, "fault", events[0].Attribute)
	require.False(t, events[0].Value)
}

// TestBankGetErrors reports typed query errors.
func TestBankGetErrors(t *testing.T) {
	t.Parallel()

	b := NewBank(testLimits)

	_, err := b.Get(device.KindZone, 9999, "fault")
	require.ErrorIs(t, err, device.ErrOutOfRange)

	_, err = b.Get(device.KindZone, 0, "fault")
	require.ErrorIs(t, err, device.ErrOutOfRange)

	_, err = b.Get(device.Kind("door"), 1, "fault")
	require.ErrorIs(t, err, device.ErrUnknownKind)

	_, err = b.Get(device.KindPartition, 1, "fault")
	require.ErrorIs(t, err, device.ErrUnknownAttribute)
}

// TestBankIgnoresOutOfRangeMessage drops messages for untracked ids.
func TestBankIgnoresOutOfRangeMessage(t *testing.T) {
	t.Parallel()

	b := NewBank(Limits{MaxZone: 1})
	msg := Message{Kind: device.KindZone, ID: 2, Fields: []Field{{Name: "fault", Value: true}}}
	require.Empty(t, b.Apply(msg, time.Now()))
}

// TestBankDevices returns snapshots per kind.
func TestBankDevices(t *testing.T) {
	t.Parallel()

	b := NewBank(testLimits)

	all, err := b.Devices("")
	require.NoError(t, err)
	require.Len(t, all, 18)

	zones, err := b.Devices(device.KindZone)
	require.NoError(t, err)
	require.Len(t, zones, 16)
	require.Equal(t, 1, zones[0].ID)
	require.Len(t, zones[0].Attributes, 9)

	_, err = b.Devices(device.Kind("door"))
	require.ErrorIs(t, err, device.ErrUnknownKind)
}

// TestBankConcurrentReads reads while the single writer applies messages.
func TestBankConcurrentReads(t *testing.T) {
	t.Parallel()

	limits := Limits{MaxZone: 1}
	b := NewBank(limits)
	up := mustDecode(t, "ZN001Fttbaillbx", limits)
	down := mustDecode(t, "ZN001fttbaillbx", limits)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				a, err := b.Get(device.KindZone, 1, "fault")
				if err != nil {
					t.Error(err)
					return
				}
				if a.Known && a.Changed.IsZero() {
					t.Error("value without timestamp")
					return
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		if i%2 == 0 {
			b.Apply(up, time.Now())
		} else {
			b.Apply(down, time.Now())
		}
	}
	close(stop)
	wg.Wait()
}
