package client

import (
	"errors"
	"testing"

	"github.com/ganot/livetodo/internal/realtime"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	calls []string
}

func (s *recordingSender) StartEdit(todoID string) error {
	s.calls = append(s.calls, "start:"+todoID)
	return nil
}

func (s *recordingSender) EndEdit(todoID string) error {
	s.calls = append(s.calls, "end:"+todoID)
	return nil
}

func (s *recordingSender) EditChange(todoID, text string) error {
	s.calls = append(s.calls, "change:"+todoID+":"+text)
	return nil
}

func TestPresence_StartChangeEnd(t *testing.T) {
	p := NewPresence(nil)

	p.HandleEditStart(realtime.EditPresence{TodoID: "T", UserID: "U1"})
	require.True(t, p.IsBeingEdited("T"))
	editor, ok := p.EditingEditorID("T")
	require.True(t, ok)
	require.Equal(t, "U1", editor)
	_, ok = p.EditingText("T")
	require.False(t, ok, "no text before the first change")

	p.HandleEditChange(realtime.EditChange{TodoID: "T", Text: "Buy oat milk", UserID: "U1"})
	text, ok := p.EditingText("T")
	require.True(t, ok)
	require.Equal(t, "Buy oat milk", text)

	p.HandleEditEnd(realtime.EditPresence{TodoID: "T", UserID: "U1"})
	require.False(t, p.IsBeingEdited("T"))
	_, ok = p.EditingEditorID("T")
	require.False(t, ok)
}

func TestPresence_ChangeFromOtherEditorIgnored(t *testing.T) {
	p := NewPresence(nil)
	p.HandleEditStart(realtime.EditPresence{TodoID: "T", UserID: "U1"})
	p.HandleEditChange(realtime.EditChange{TodoID: "T", Text: "mine", UserID: "U1"})

	p.HandleEditChange(realtime.EditChange{TodoID: "T", Text: "theirs", UserID: "U2"})

	entry, ok := p.Entry("T")
	require.True(t, ok)
	require.Equal(t, PresenceEntry{EditorID: "U1", Text: "mine", HasText: true}, entry)
}

func TestPresence_ChangeWithoutStartIgnored(t *testing.T) {
	p := NewPresence(nil)

	p.HandleEditChange(realtime.EditChange{TodoID: "T", Text: "orphan", UserID: "U1"})

	require.False(t, p.IsBeingEdited("T"))
}

func TestPresence_NewerStartReplacesEditor(t *testing.T) {
	p := NewPresence(nil)
	p.HandleEditStart(realtime.EditPresence{TodoID: "T", UserID: "U1"})
	p.HandleEditChange(realtime.EditChange{TodoID: "T", Text: "draft", UserID: "U1"})

	p.HandleEditStart(realtime.EditPresence{TodoID: "T", UserID: "U2"})

	entry, _ := p.Entry("T")
	require.Equal(t, PresenceEntry{EditorID: "U2"}, entry)
}

func TestPresence_EndIsUnconditional(t *testing.T) {
	p := NewPresence(nil)
	p.HandleEditStart(realtime.EditPresence{TodoID: "T", UserID: "U1"})

	p.HandleEditEnd(realtime.EditPresence{TodoID: "T", UserID: "U2"})

	require.False(t, p.IsBeingEdited("T"))
}

func TestPresence_LocalEditsAreSentNotStored(t *testing.T) {
	sender := &recordingSender{}
	p := NewPresence(sender)

	require.NoError(t, p.StartEdit("T"))
	require.NoError(t, p.EditChange("T", "typing"))
	require.NoError(t, p.EndEdit("T"))

	require.Equal(t, []string{"start:T", "change:T:typing", "end:T"}, sender.calls)
	require.False(t, p.IsBeingEdited("T"))
}

func TestPresence_WithoutSender(t *testing.T) {
	p := NewPresence(nil)
	require.True(t, errors.Is(p.StartEdit("T"), ErrNotConnected))
}

func TestPresence_ResetAndNotify(t *testing.T) {
	p := NewPresence(nil)
	changes := 0
	sub := p.OnChange(func() { changes++ })

	p.HandleEditStart(realtime.EditPresence{TodoID: "A", UserID: "U1"})
	p.HandleEditStart(realtime.EditPresence{TodoID: "B", UserID: "U2"})
	p.Reset()
	require.False(t, p.IsBeingEdited("A"))
	require.False(t, p.IsBeingEdited("B"))
	require.Equal(t, 3, changes)

	sub.Unsubscribe()
	p.HandleEditStart(realtime.EditPresence{TodoID: "A", UserID: "U1"})
	require.Equal(t, 3, changes)
}
