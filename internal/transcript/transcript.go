// Package transcript keeps the append-only chat log shown to the user.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Welcome is the greeting a new transcript starts with.
const Welcome = "Hi there! I'm ChatDo. I can help you manage your tasks. Just tell me what you need to do!"

// Message is one transcript entry. Entries are never modified once appended.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is a concurrency-safe append-only message log.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	now      func() time.Time

	// OnAppend, when set, observes every appended message.
	OnAppend func(Message)
}

// New creates a transcript. A non-empty welcome text is added as the first
// assistant message.
func New(welcome string) *Transcript {
	t := &Transcript{now: time.Now}
	if welcome != "" {
		t.messages = append(t.messages, Message{
			ID:        "welcome",
			Text:      welcome,
			Sender:    SenderAssistant,
			Timestamp: t.now(),
		})
	}
	return t
}

// Append adds a message and returns it.
func (t *Transcript) Append(sender Sender, text string) Message {
	t.mu.Lock()
	m := Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: t.now(),
	}
	t.messages = append(t.messages, m)
	hook := t.OnAppend
	t.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	return m
}

// Messages returns a copy of the log in append order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message.
func (t *Transcript) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}
