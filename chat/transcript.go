// Package chat implements an interactive conversation over any llm.Client.
//
// The whole transcript is resent on every turn; the backend keeps no session
// state. A Transcript holds the role-tagged messages, a Session drives turns
// and usage accounting, and a REPL reads console input and interprets the
// slash commands.
package chat

import (
	"slices"

	"github.com/xostack/uniai/llm"
)

// Transcript is an ordered, role-tagged conversation. The seed system
// message, when present, is always first and survives Clear.
type Transcript struct {
	seed       *llm.Message
	messages   []llm.Message
	maxHistory int
}

// NewTranscript seeds a transcript with systemPrompt (skipped when empty).
// maxHistory caps the non-system messages kept by Trim; 0 means unlimited.
func NewTranscript(systemPrompt string, maxHistory int) *Transcript {
	t := &Transcript{maxHistory: maxHistory}
	if systemPrompt != "" {
		t.seed = &llm.Message{Role: llm.RoleSystem, Content: systemPrompt}
	}
	t.Clear()
	return t
}

// Append adds a message at the end.
func (t *Transcript) Append(role llm.Role, content string) {
	t.messages = append(t.messages, llm.Message{Role: role, Content: content})
}

// Messages returns a copy of the transcript, seed first.
func (t *Transcript) Messages() []llm.Message {
	return slices.Clone(t.messages)
}

// Len returns the number of messages including the seed.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// ConversationLen returns the number of messages excluding the seed.
func (t *Transcript) ConversationLen() int {
	if t.seed != nil {
		return len(t.messages) - 1
	}
	return len(t.messages)
}

// Clear resets the transcript to just the seed message.
func (t *Transcript) Clear() {
	t.messages = t.messages[:0]
	if t.seed != nil {
		t.messages = append(t.messages, *t.seed)
	}
}

// Trim drops the oldest non-seed messages until at most maxHistory remain.
// The kept history always opens with a user message, since Claude and
// Gemini reject a conversation that starts with an assistant turn.
func (t *Transcript) Trim() {
	if t.maxHistory <= 0 {
		return
	}
	start := 0
	if t.seed != nil {
		start = 1
	}
	excess := len(t.messages) - start - t.maxHistory
	if excess <= 0 {
		return
	}
	end := start + excess
	for end < len(t.messages) && t.messages[end].Role != llm.RoleUser {
		end++
	}
	t.messages = slices.Delete(t.messages, start, end)
}
