package cli

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"github.com/raphaelgruber/helpdesk-go/internal/session"
)

func TestPollConnectivityDeliversUntilCanceled(t *testing.T) {
	var issued atomic.Int32
	reprobe := func() session.Effect {
		issued.Add(1)
		return func() session.Event { return session.ProbeSettled{State: models.Connected()} }
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan session.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pollConnectivity(ctx, 5*time.Millisecond, reprobe, out)
	}()

	for range 2 {
		select {
		case ev := <-out:
			settled, ok := ev.(session.ProbeSettled)
			require.True(t, ok)
			assert.True(t, settled.State.Connected)
		case <-time.After(2 * time.Second):
			t.Fatal("no probe result delivered")
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}
	assert.GreaterOrEqual(t, issued.Load(), int32(2))
}

func TestPollConnectivityDisabled(t *testing.T) {
	reprobe := func() session.Effect {
		t.Fatal("unexpected re-probe")
		return nil
	}
	pollConnectivity(context.Background(), 0, reprobe, nil)
}
