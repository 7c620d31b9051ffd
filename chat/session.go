package chat

import (
	"slices"

	"github.com/benbjohnson/clock"
)

const DefaultRoom = "general"

// Session is the controller state. It is owned by the loop.
type Session struct {
	username string
	room     string
	typing   []string

	debounce    *clock.Timer
	debounceSeq uint64

	draft    string
	creating bool
}

func NewSession(username, room string) *Session {
	if room == "" {
		room = DefaultRoom
	}
	return &Session{username: username, room: room}
}

func (s *Session) Username() string { return s.username }

func (s *Session) Room() string { return s.room }

func (s *Session) SetRoom(room string) { s.room = room }

// Typing returns the users currently typing, in the order they started.
func (s *Session) Typing() []string {
	return slices.Clone(s.typing)
}

// AddTyping records name as typing. The local user is never recorded.
func (s *Session) AddTyping(name string) bool {
	if name == "" || name == s.username || slices.Contains(s.typing, name) {
		return false
	}
	s.typing = append(s.typing, name)
	return true
}

func (s *Session) RemoveTyping(name string) bool {
	i := slices.Index(s.typing, name)
	if i < 0 {
		return false
	}
	s.typing = slices.Delete(s.typing, i, i+1)
	return true
}

func (s *Session) ClearTyping() {
	s.typing = nil
}

// armDebounce replaces the pending stop-typing timer and returns the
// sequence number the new timer must match when it fires.
func (s *Session) armDebounce(t func(seq uint64) *clock.Timer) {
	s.cancelDebounce()
	s.debounce = t(s.debounceSeq)
}

// cancelDebounce stops the pending timer. A callback already queued on the
// loop sees a stale sequence number and does nothing.
func (s *Session) cancelDebounce() {
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	s.debounceSeq++
}

func (s *Session) debounceCurrent(seq uint64) bool {
	return s.debounce != nil && seq == s.debounceSeq
}

func (s *Session) Draft() string { return s.draft }

func (s *Session) SetDraft(text string) { s.draft = text }

// Creating reports whether a create-room request is in flight.
func (s *Session) Creating() bool { return s.creating }

func (s *Session) SetCreating(v bool) { s.creating = v }

// TypingPending reports whether a stop-typing timer is armed.
func (s *Session) TypingPending() bool { return s.debounce != nil }
