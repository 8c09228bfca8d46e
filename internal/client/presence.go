package client

import (
	"sync"

	"github.com/ganot/livetodo/internal/realtime"
)

// PresenceSource delivers peers' presence messages.
type PresenceSource interface {
	OnEditStart(fn func(realtime.EditPresence)) Subscription
	OnEditEnd(fn func(realtime.EditPresence)) Subscription
	OnEditChange(fn func(realtime.EditChange)) Subscription
	OnDisconnect(fn func(err error)) Subscription
}

// PresenceSender forwards the local user's presence upstream.
type PresenceSender interface {
	StartEdit(todoID string) error
	EndEdit(todoID string) error
	EditChange(todoID, text string) error
}

// PresenceEntry is a peer's open edit of one item.
type PresenceEntry struct {
	EditorID string
	Text     string
	// HasText is false until the editor shares its first change.
	HasText bool
}

// Presence tracks which items peers are editing. It records only peers; the
// local user's own edits are sent upstream and never stored.
type Presence struct {
	sender PresenceSender

	mu      sync.RWMutex
	entries map[string]PresenceEntry

	changes listeners
}

// NewPresence creates an empty tracker. sender may be nil for a read-only view.
func NewPresence(sender PresenceSender) *Presence {
	return &Presence{
		sender:  sender,
		entries: make(map[string]PresenceEntry),
	}
}

// Bind subscribes the tracker to src. Entries are dropped when the channel
// goes down since the messages that would end them may be lost.
func (p *Presence) Bind(src PresenceSource) Subscription {
	return SubscriptionGroup{
		src.OnEditStart(p.HandleEditStart),
		src.OnEditEnd(p.HandleEditEnd),
		src.OnEditChange(p.HandleEditChange),
		src.OnDisconnect(func(error) { p.Reset() }),
	}
}

// OnChange runs fn after every change to the tracked entries.
func (p *Presence) OnChange(fn func()) Subscription {
	return p.changes.add(fn)
}

func (p *Presence) StartEdit(todoID string) error {
	if p.sender == nil {
		return ErrNotConnected
	}
	return p.sender.StartEdit(todoID)
}

func (p *Presence) EndEdit(todoID string) error {
	if p.sender == nil {
		return ErrNotConnected
	}
	return p.sender.EndEdit(todoID)
}

func (p *Presence) EditChange(todoID, text string) error {
	if p.sender == nil {
		return ErrNotConnected
	}
	return p.sender.EditChange(todoID, text)
}

// HandleEditStart records that msg.UserID is editing msg.TodoID, replacing
// any previous editor.
func (p *Presence) HandleEditStart(msg realtime.EditPresence) {
	p.mu.Lock()
	p.entries[msg.TodoID] = PresenceEntry{EditorID: msg.UserID}
	p.mu.Unlock()
	p.changes.notify()
}

// HandleEditChange stores live text only when msg comes from the recorded
// editor of the item.
func (p *Presence) HandleEditChange(msg realtime.EditChange) {
	p.mu.Lock()
	entry, ok := p.entries[msg.TodoID]
	if !ok || entry.EditorID != msg.UserID {
		p.mu.Unlock()
		return
	}
	p.entries[msg.TodoID] = PresenceEntry{EditorID: msg.UserID, Text: msg.Text, HasText: true}
	p.mu.Unlock()
	p.changes.notify()
}

// HandleEditEnd removes the entry for msg.TodoID whoever sent it.
func (p *Presence) HandleEditEnd(msg realtime.EditPresence) {
	p.mu.Lock()
	delete(p.entries, msg.TodoID)
	p.mu.Unlock()
	p.changes.notify()
}

// Reset forgets every entry.
func (p *Presence) Reset() {
	p.mu.Lock()
	clear(p.entries)
	p.mu.Unlock()
	p.changes.notify()
}

func (p *Presence) IsBeingEdited(todoID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entries[todoID]
	return ok
}

// EditingText returns the peer's live text, if it has shared any.
func (p *Presence) EditingText(todoID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[todoID]
	if !ok || !entry.HasText {
		return "", false
	}
	return entry.Text, true
}

func (p *Presence) EditingEditorID(todoID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[todoID]
	return entry.EditorID, ok
}

// Entry returns the full entry for todoID.
func (p *Presence) Entry(todoID string) (PresenceEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[todoID]
	return entry, ok
}
