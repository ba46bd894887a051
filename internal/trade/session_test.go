package trade_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteract(t *testing.T) {
	svc, _ := newTestService(t, 1000)
	in := strings.NewReader("buy AAPL 2\n\nsell AAPL 5\nbalance\nquit\nbalance\n")
	var out bytes.Buffer

	require.NoError(t, svc.Interact(context.Background(), in, &out, "> "))

	got := out.String()
	assert.Contains(t, got, "Bought 2 shares of AAPL for $300.00")
	assert.Contains(t, got, "error: ledger: insufficient shares of AAPL: 2 available, need 5")
	assert.Contains(t, got, "Balance: $700.00")
	assert.Equal(t, 1, strings.Count(got, "Balance:"), "commands after quit must not run")
}

func TestInteract_EOFEndsSession(t *testing.T) {
	svc, _ := newTestService(t, 0)
	var out bytes.Buffer
	require.NoError(t, svc.Interact(context.Background(), strings.NewReader("deposit 10"), &out, ""))
	assert.Equal(t, "Deposited $10.00\n", out.String())
}

func TestInteract_CancelWhileWaitingForInput(t *testing.T) {
	svc, _ := newTestService(t, 0)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Interact(ctx, pr, io.Discard, "> ")
	}()

	_, err := pw.Write([]byte("deposit 10\n"))
	require.NoError(t, err)
	// The write returns once the line is read; nothing more is ever sent.
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Interact did not return after cancel")
	}
}

func TestInteract_CanceledBeforeStart(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Interact(ctx, strings.NewReader("deposit 10\n"), io.Discard, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, svc.Ledger().Cash().IsZero())
}
