package chat

import "time"

// DefaultTypingExpiry bounds how long a peer stays in the typing set
// without a follow-up event. A dropped "stopped typing" frame must not
// leave the indicator stuck.
const DefaultTypingExpiry = 3 * time.Second

// TypingIndicator holds the set of peers currently flagged as typing.
// Membership is time-bounded: every inbound "typing" with isTyping=true
// rearms that user's expiry timer, and the timer's lapse invokes the
// expired hook from its own goroutine. Mutations are not safe for
// concurrent use; the session serializes them (including the hook).
type TypingIndicator struct {
	expiry  time.Duration
	users   []string
	timers  map[string]*time.Timer
	expired func(username string)
}

func NewTypingIndicator(expiry time.Duration, expired func(username string)) *TypingIndicator {
	return &TypingIndicator{
		expiry:  expiry,
		timers:  make(map[string]*time.Timer),
		expired: expired,
	}
}

// Set flags username as typing or not. Reports whether membership changed.
func (t *TypingIndicator) Set(username string, isTyping bool) bool {
	if isTyping {
		return t.add(username)
	}
	return t.remove(username)
}

func (t *TypingIndicator) add(username string) bool {
	if timer, ok := t.timers[username]; ok {
		// With expiry disabled the map entry is a bare membership marker.
		if timer != nil {
			timer.Reset(t.expiry)
		}
		return false
	}
	if t.expiry > 0 {
		name := username
		t.timers[username] = time.AfterFunc(t.expiry, func() {
			t.expired(name)
		})
	} else {
		t.timers[username] = nil
	}
	t.users = append(t.users, username)
	return true
}

func (t *TypingIndicator) remove(username string) bool {
	timer, ok := t.timers[username]
	if !ok {
		return false
	}
	if timer != nil {
		timer.Stop()
	}
	delete(t.timers, username)
	for i, u := range t.users {
		if u == username {
			t.users = append(t.users[:i], t.users[i+1:]...)
			break
		}
	}
	return true
}

// Users returns the typing set in arrival order.
func (t *TypingIndicator) Users() []string {
	return append([]string(nil), t.users...)
}

// Reset clears membership and cancels all expiry timers. Called on
// disconnect so no timer outlives the session it belongs to.
func (t *TypingIndicator) Reset() {
	for _, timer := range t.timers {
		if timer != nil {
			timer.Stop()
		}
	}
	t.users = nil
	t.timers = make(map[string]*time.Timer)
}
