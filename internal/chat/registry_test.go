package chat

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterRejectsDuplicateName(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	req.True(r.TryRegister("alice", NewOutbox(8)))
	req.False(r.TryRegister("alice", NewOutbox(8)))
	req.Equal(1, r.Len())
}

func TestRegistry_ConcurrentRegistrationHasOneWinner(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	const contenders = 64
	var (
		wins  atomic.Int32
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.TryRegister("carol", NewOutbox(8)) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	req.Equal(int32(1), wins.Load())
	req.Len(r.Snapshot(), 1)
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	req.True(r.TryRegister("alice", NewOutbox(8)))

	r.Unregister("alice")
	r.Unregister("alice")
	r.Unregister("nobody")

	req.Zero(r.Len())
	_, ok := r.Lookup("alice")
	req.False(ok)
}

func TestRegistry_NameReusableAfterUnregister(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	first, second := NewOutbox(8), NewOutbox(8)

	req.True(r.TryRegister("alice", first))
	r.Unregister("alice")
	req.True(r.TryRegister("alice", second))

	out, ok := r.Lookup("alice")
	req.True(ok)
	req.Same(second, out)
}

func TestRegistry_GreetingQueuedOnlyOnSuccess(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	winner, loser := NewOutbox(8), NewOutbox(8)

	req.NoError(r.Register("bob", winner, LineNameAccepted))
	req.ErrorIs(r.Register("bob", loser, LineNameAccepted), ErrNameTaken)

	req.Equal([]string{LineNameAccepted}, drain(winner))
	req.Empty(drain(loser))
}

func TestRegistry_GreetingThatDoesNotFitLeavesNameFree(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	out := NewOutbox(1)
	req.NoError(out.Send(LineSubmitName))

	// Given the outbox has no room for the acknowledgment
	err := r.Register("bob", out, LineNameAccepted)

	// Then the name is not bound and nothing partial was queued
	req.ErrorIs(err, ErrOutboxFull)
	_, ok := r.Lookup("bob")
	req.False(ok)
	req.Equal([]string{LineSubmitName}, drain(out))

	// And the name is still available to someone else
	req.True(r.TryRegister("bob", NewOutbox(4)))
}

func TestRegistry_SnapshotIsSortedCopy(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	for _, name := range []string{"carol", "alice", "bob"} {
		req.True(r.TryRegister(name, NewOutbox(8)))
	}

	snap := r.Snapshot()
	r.Unregister("bob")

	names := make([]string, 0, len(snap))
	for _, m := range snap {
		names = append(names, m.Name)
	}
	req.Equal([]string{"alice", "bob", "carol"}, names)
	req.Equal(2, r.Len())
}

// drain returns every line currently queued on o without blocking.
func drain(o *Outbox) []string {
	var lines []string
	for {
		select {
		case line, ok := <-o.ch:
			if !ok {
				return lines
			}
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

func waitForPrefix(t *testing.T, next func() (string, error), prefix string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := next()
		if err != nil {
			t.Fatalf("waiting for prefix %q: %v", prefix, err)
		}
		if strings.HasPrefix(line, prefix) {
			return line
		}
		// ignore other lines
	}
	t.Fatalf("timeout waiting for prefix %q", prefix)
	return ""
}
