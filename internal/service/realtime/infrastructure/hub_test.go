package infrastructure

import (
	"testing"
	"time"
)

type fakeConn struct {
	received [][]byte
	full     bool
	closed   bool
}

func (f *fakeConn) Send(p []byte) bool {
	if f.full || f.closed {
		return false
	}
	f.received = append(f.received, p)
	return true
}

func (f *fakeConn) Close() { f.closed = true }

func TestHubOpenSendClose(t *testing.T) {
	hub := NewHub()
	phone, laptop := &fakeConn{}, &fakeConn{}
	hub.Open("user:u-1", phone)
	hub.Open("user:u-1", laptop)
	if hub.Len() != 2 {
		t.Fatalf("expected 2 connections, got %d", hub.Len())
	}

	if !hub.Send("user:u-1", []byte("hello")) {
		t.Fatal("expected delivery")
	}
	if len(phone.received) != 1 || len(laptop.received) != 1 {
		t.Fatalf("both devices should receive, got %d %d", len(phone.received), len(laptop.received))
	}
	if hub.Send("user:u-2", []byte("hello")) {
		t.Fatal("unknown recipient must not be delivered")
	}

	if last := hub.Close("user:u-1", phone); last {
		t.Fatal("laptop is still connected")
	}
	if !phone.closed {
		t.Fatal("closed connection must be closed")
	}
	if last := hub.Close("user:u-1", laptop); !last {
		t.Fatal("expected last connection gone")
	}
	if hub.Len() != 0 {
		t.Fatalf("expected empty hub, got %d", hub.Len())
	}
	// 重复关闭是安全的
	hub.Close("user:u-1", laptop)
}

func TestHubSendReportsFullQueues(t *testing.T) {
	hub := NewHub()
	hub.Open("coach:c-1", &fakeConn{full: true})
	if hub.Send("coach:c-1", []byte("x")) {
		t.Fatal("a full connection queue is not a delivery")
	}
}

func TestHubSweepClosesIdleConnections(t *testing.T) {
	hub := NewHub()
	t0 := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	hub.now = func() time.Time { return now }

	idle, active := &fakeConn{}, &fakeConn{}
	hub.Open("user:u-1", idle)
	hub.Open("user:u-2", active)

	now = t0.Add(4 * time.Minute)
	hub.Touch("user:u-2", active)

	swept := hub.Sweep(t0.Add(6 * time.Minute).Add(-5 * time.Minute))
	if swept != 1 || !idle.closed || active.closed {
		t.Fatalf("expected only the idle connection swept, got %d", swept)
	}
	if hub.Len() != 1 || !hub.Send("user:u-2", []byte("still here")) {
		t.Fatal("active connection should survive the sweep")
	}
}
