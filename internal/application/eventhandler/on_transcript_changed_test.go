package eventhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

type recordingSnapshots struct {
	saved   int
	lastLen int
	err     error
}

func (r *recordingSnapshots) Save(ctx context.Context, semesters []transcript.Semester) error {
	if r.err != nil {
		return r.err
	}
	r.saved++
	r.lastLen = len(semesters)
	return nil
}

func (r *recordingSnapshots) Load(ctx context.Context) ([]transcript.Semester, error) {
	return nil, transcript.ErrSnapshotNotFound
}

func TestOnTranscriptChanged_SavesSnapshot(t *testing.T) {
	store := transcript.NewStore(transcript.Params{})
	snapshots := &recordingSnapshots{}
	h := NewOnTranscriptChangedHandler(store, snapshots, nil, DefaultAutosaveConfig())

	event := shared.NewTranscriptChangedEvent(shared.EventCourseAdded, "add_course", "s1", "c1", 8.42, 7)
	err := h.Handle(event)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshots.saved)
	assert.Equal(t, 1, snapshots.lastLen)
}

func TestOnTranscriptChanged_SaveFailureSwallowed(t *testing.T) {
	store := transcript.NewStore(transcript.Params{})
	snapshots := &recordingSnapshots{err: errors.New("redis down")}
	h := NewOnTranscriptChangedHandler(store, snapshots, nil, DefaultAutosaveConfig())

	event := shared.NewTranscriptChangedEvent(shared.EventCourseAdded, "add_course", "", "", 0, 0)
	assert.NoError(t, h.Handle(event), "сбой autosave не распространяется")
}

func TestOnTranscriptChanged_Disabled(t *testing.T) {
	store := transcript.NewStore(transcript.Params{})
	snapshots := &recordingSnapshots{}
	cfg := DefaultAutosaveConfig()
	cfg.Enabled = false
	h := NewOnTranscriptChangedHandler(store, snapshots, nil, cfg)

	event := shared.NewTranscriptChangedEvent(shared.EventTranscriptReset, "reset", "", "", 0, 0)
	require.NoError(t, h.Handle(event))
	assert.Zero(t, snapshots.saved)
}

func TestOnTranscriptChanged_RegisterSubscribesToMutations(t *testing.T) {
	store := transcript.NewStore(transcript.Params{})
	h := NewOnTranscriptChangedHandler(store, &recordingSnapshots{}, nil, DefaultAutosaveConfig())

	bus := &fakeSubscriber{}
	require.NoError(t, h.Register(bus))
	assert.Contains(t, bus.types, shared.EventSemesterAdded)
	assert.Contains(t, bus.types, shared.EventCourseDeleted)
	assert.Contains(t, bus.types, shared.EventTranscriptReset)
}

type fakeSubscriber struct {
	types []shared.EventType
}

func (f *fakeSubscriber) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	f.types = append(f.types, eventType)
	return nil
}

func (f *fakeSubscriber) SubscribeAll(handler shared.EventHandler) error {
	return nil
}
