package session

import (
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	if StatusActive.Terminal() {
		t.Error("active must not be terminal")
	}
	if !StatusStopped.Terminal() || !StatusExpired.Terminal() {
		t.Error("stopped and expired must be terminal")
	}
}

func TestSessionLiveness(t *testing.T) {
	now := time.Now()
	sess := &Session{Status: StatusActive, ExpiresAt: now.Add(time.Minute)}

	if !sess.Live(now) {
		t.Error("active session before TTL must be live")
	}
	if sess.Live(now.Add(2 * time.Minute)) {
		t.Error("lapsed session must not be live")
	}

	sess.Status = StatusStopped
	if sess.Live(now) {
		t.Error("stopped session must not be live")
	}
}

func TestSessionCanAcceptPlayers(t *testing.T) {
	sess := &Session{Status: StatusActive, MaxPlayers: 2, CurrentPlayers: 1}
	if !sess.CanAcceptPlayers() {
		t.Error("expected room for one more player")
	}

	sess.CurrentPlayers = 2
	if sess.CanAcceptPlayers() {
		t.Error("full session must not accept players")
	}

	sess.CurrentPlayers = 0
	sess.Status = StatusExpired
	if sess.CanAcceptPlayers() {
		t.Error("terminal session must not accept players")
	}
}

func TestSessionRemainingSeconds(t *testing.T) {
	now := time.Now()
	sess := &Session{Status: StatusActive, ExpiresAt: now.Add(90 * time.Second)}

	if got := sess.RemainingSeconds(now); got < 89 || got > 90 {
		t.Errorf("expected ~90s remaining, got %d", got)
	}
	if got := sess.RemainingSeconds(now.Add(3 * time.Minute)); got != 0 {
		t.Errorf("expected 0 after lapse, got %d", got)
	}

	sess.Status = StatusStopped
	if got := sess.RemainingSeconds(now); got != 0 {
		t.Errorf("terminal session must report 0, got %d", got)
	}
}
