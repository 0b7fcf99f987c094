package main

import (
	"errors"
	"sync"
	"testing"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
)

type fakeSender struct {
	mu     sync.Mutex
	last   *v1.Event
	events []*v1.Event
	fail   bool
}

func (f *fakeSender) Send(ev *v1.Event) error {
	if f.fail {
		return errors.New("send fail")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = ev
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSender) received() []*v1.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*v1.Event(nil), f.events...)
}

func TestConnectionHub_RegisterAndSend(t *testing.T) {
	hub := NewConnectionHub()

	senderA := &fakeSender{}
	senderB := &fakeSender{}

	idA := hub.Register("user-1", senderA)
	_ = hub.Register("user-1", senderB) // second session

	if got := hub.Connections("user-1"); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	ev := &v1.Event{Type: v1.EventTypingStart, UserID: "user-1"}
	if err := hub.SendToUser("user-1", ev); err != nil {
		t.Fatalf("expected send success, got error: %v", err)
	}

	if senderA.last == nil || senderA.last.Type != v1.EventTypingStart {
		t.Fatalf("sender A did not receive event")
	}
	if senderB.last == nil || senderB.last.Type != v1.EventTypingStart {
		t.Fatalf("sender B did not receive event")
	}

	// Unregister senderA and ensure it no longer receives events
	hub.Unregister("user-1", idA)

	ev2 := &v1.Event{Type: v1.EventTypingStop, UserID: "user-1"}
	if err := hub.SendToUser("user-1", ev2); err != nil {
		t.Fatalf("expected send success after unregistering one connection: %v", err)
	}

	if senderA.last.Type == v1.EventTypingStop {
		t.Fatalf("sender A should not have received second event after unregister")
	}
	if senderB.last.Type != v1.EventTypingStop {
		t.Fatalf("sender B did not receive second event")
	}
}

func TestConnectionHub_SendToOffline(t *testing.T) {
	hub := NewConnectionHub()

	if err := hub.SendToUser("nobody", &v1.Event{}); err == nil {
		t.Fatalf("expected error when sending to offline user")
	}
}

func TestConnectionHub_SendToOthersSkipsOrigin(t *testing.T) {
	hub := NewConnectionHub()

	origin := &fakeSender{}
	other := &fakeSender{}

	originID := hub.Register("user-2", origin)
	_ = hub.Register("user-2", other)

	if err := hub.SendToOthers("user-2", originID, &v1.Event{Type: v1.EventTypingStart}); err != nil {
		t.Fatalf("expected send success, got: %v", err)
	}

	if origin.last != nil {
		t.Fatalf("originating session should not receive its own event")
	}
	if other.last == nil {
		t.Fatalf("other session did not receive event")
	}

	// Only the origin is connected: nothing to deliver to
	hub2 := NewConnectionHub()
	only := hub2.Register("user-3", &fakeSender{})
	if err := hub2.SendToOthers("user-3", only, &v1.Event{}); err == nil {
		t.Fatalf("expected error when the only session is excluded")
	}
}

func TestConnectionHub_SendPartialFailure(t *testing.T) {
	hub := NewConnectionHub()

	ok := &fakeSender{}
	bad := &fakeSender{fail: true}

	_ = hub.Register("user-4", ok)
	_ = hub.Register("user-4", bad)

	if err := hub.SendToUser("user-4", &v1.Event{MessageID: "x"}); err == nil {
		t.Fatalf("expected error due to partial sender failure")
	}

	// After a partial failure, the failing session should have been
	// automatically unregistered. A subsequent send should succeed and only
	// reach the healthy sender.
	if err := hub.SendToUser("user-4", &v1.Event{MessageID: "y"}); err != nil {
		t.Fatalf("expected send to succeed after cleanup of failed connections: %v", err)
	}

	if ok.last == nil || ok.last.MessageID != "y" {
		t.Fatalf("healthy sender did not receive event after cleanup")
	}
	if got := hub.Connections("user-4"); got != 1 {
		t.Fatalf("expected 1 connection after cleanup, got %d", got)
	}
}

func TestConnectionHub_UnregisterLastRemovesUser(t *testing.T) {
	hub := NewConnectionHub()

	id := hub.Register("user-5", &fakeSender{})
	hub.Unregister("user-5", id)
	hub.Unregister("user-5", id) // unknown id is a no-op

	if got := hub.Connections("user-5"); got != 0 {
		t.Fatalf("expected no connections, got %d", got)
	}
}

func TestLockedSender_SerializesConcurrentSends(t *testing.T) {
	inFlight := 0
	maxInFlight := 0
	var guard sync.Mutex

	ls := &lockedSender{send: func(*v1.Event) error {
		guard.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		guard.Unlock()

		guard.Lock()
		inFlight--
		guard.Unlock()
		return nil
	}}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ls.Send(&v1.Event{})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Fatalf("expected sends to be serialized, saw %d concurrent", maxInFlight)
	}
}
