package collab

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_VerifyDetectsTampering(t *testing.T) {
	msg, err := NewMessage(KindTransaction, "node1", []byte("payload"), time.Now())
	require.NoError(t, err)
	require.True(t, msg.Verify())

	msg.Payload = []byte("tampered")
	require.False(t, msg.Verify())
}

func TestMessage_IDFormat(t *testing.T) {
	msg, err := NewMessage(KindCommitment, "node1", []byte("x"), time.Now())
	require.NoError(t, err)
	require.Regexp(t, `^msg_\d+_\d+$`, msg.ID)
}

func TestPeerRecord_IsActive(t *testing.T) {
	now := time.Now()
	active := PeerRecord{Active: true, LastResponseTime: now.Add(-time.Second)}
	require.True(t, active.IsActive(now, DefaultHeartbeatTimeout))

	stale := PeerRecord{Active: true, LastResponseTime: now.Add(-time.Hour)}
	require.False(t, stale.IsActive(now, DefaultHeartbeatTimeout))

	inactive := PeerRecord{Active: false, LastResponseTime: now}
	require.False(t, inactive.IsActive(now, DefaultHeartbeatTimeout))
}

func TestPeerTable_TouchAndActivePeers(t *testing.T) {
	table := NewPeerTable(time.Minute)
	now := time.Now()
	table.Upsert(PeerRecord{ID: "p1", Active: false, LastResponseTime: now.Add(-time.Hour)})
	require.Empty(t, table.ActivePeers(now))

	table.Touch("p1", now)
	active := table.ActivePeers(now)
	require.Len(t, active, 1)
	require.Equal(t, "p1", active[0].ID)

	table.Remove("p1")
	require.Empty(t, table.ActivePeers(now))
}

func TestSimulatedTransport_BroadcastDropsTamperedMessages(t *testing.T) {
	transport := NewSimulatedTransport("node1")
	ch := transport.Connect("peer1")

	tampered, err := NewMessage(KindValidation, "node1", []byte("x"), time.Now())
	require.NoError(t, err)
	tampered.Payload = []byte("tampered")
	transport.Broadcast(tampered)

	valid, err := NewMessage(KindValidation, "node1", []byte("y"), time.Now())
	require.NoError(t, err)
	transport.Broadcast(valid)

	select {
	case got := <-ch:
		require.Equal(t, valid.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected broadcast message to arrive")
	}

	select {
	case extra := <-ch:
		t.Fatalf("unexpected second message delivered: %v", extra.ID)
	default:
	}
}

func TestSimulatedTransport_RunInboxDispatchesByKind(t *testing.T) {
	transport := NewSimulatedTransport("node1")
	ch := transport.Connect("peer1")

	received := make(chan Message, 1)
	transport.RegisterHandler(KindCommitment, func(m Message) { received <- m })

	go transport.RunInbox(ch)

	msg, err := NewMessage(KindCommitment, "node1", []byte("payload"), time.Now())
	require.NoError(t, err)
	transport.Broadcast(msg)

	select {
	case got := <-received:
		require.Equal(t, msg.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected handler dispatch")
	}
}

func TestRetryPolicy_SucceedsOnSecondAttempt(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffMult: 2.0, MaxDelay: time.Millisecond * 10, UmbrellaTimeout: time.Second}
	attempts := 0
	outcome := p.Do(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.Equal(t, Success, outcome)
	require.Equal(t, 2, attempts)
}

func TestRetryPolicy_DefinitiveFailureAfterMaxAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffMult: 2.0, MaxDelay: time.Millisecond * 10, UmbrellaTimeout: time.Second}
	outcome := p.Do(context.Background(), func() error { return errors.New("permanent") })
	require.Equal(t, DefinitiveFailure, outcome)
}

func TestRetryPolicy_TimeoutWhenUmbrellaExpires(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 100, InitialDelay: 20 * time.Millisecond, BackoffMult: 1.0, MaxDelay: 20 * time.Millisecond, UmbrellaTimeout: 30 * time.Millisecond}
	outcome := p.Do(context.Background(), func() error { return errors.New("always fails") })
	require.Equal(t, Timeout, outcome)
}

func TestSimulatedRewardLedger_Credit(t *testing.T) {
	l := NewSimulatedRewardLedger()
	l.Credit("n1", 10)
	l.Credit("n1", 5)
	require.Equal(t, uint64(15), l.Balance("n1"))
	require.Equal(t, uint64(0), l.Balance("ghost"))
}
