package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
)

// fakeSnapshots - управляемая реализация SnapshotRepository.
type fakeSnapshots struct {
	semesters []transcript.Semester
	loadErr   error
	saved     [][]transcript.Semester
	saveErr   error
}

func (f *fakeSnapshots) Save(ctx context.Context, semesters []transcript.Semester) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, semesters)
	return nil
}

func (f *fakeSnapshots) Load(ctx context.Context) ([]transcript.Semester, error) {
	return f.semesters, f.loadErr
}

func TestRestoreTranscript_FromSnapshot(t *testing.T) {
	store := newTestStore()
	snapshots := &fakeSnapshots{
		semesters: []transcript.Semester{
			{
				ID:   "s1",
				Name: "Fall 2024",
				Courses: []transcript.Course{
					{ID: "c1", Name: "Algorithms", Credits: 4, Grade: "S"},
				},
			},
			{
				ID:   "s2",
				Name: "Spring 2025",
				Courses: []transcript.Course{
					{ID: "c2", Name: "Databases", Credits: 3, Grade: "B"},
				},
			},
		},
	}
	bus := &fakeBus{}
	h := NewRestoreTranscriptHandler(store, snapshots, bus, nil)

	result, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Restored)
	assert.Equal(t, 2, result.SemesterCount)
	// (4*10 + 3*8) / 7 = 64/7 = 9.142... -> 9.14
	assert.InDelta(t, 9.14, result.CGPA, 1e-9)

	require.Len(t, bus.events, 1)
}

func TestRestoreTranscript_MissingSnapshotFallsBackToDefaults(t *testing.T) {
	store := newTestStore()
	snapshots := &fakeSnapshots{loadErr: transcript.ErrSnapshotNotFound}
	h := NewRestoreTranscriptHandler(store, snapshots, nil, nil)

	result, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Restored)
	assert.Equal(t, 1, result.SemesterCount)

	// Транскрипт по умолчанию: A(3cr) + B(4cr) = (27+32)/7 = 8.42.
	assert.InDelta(t, 8.42, result.CGPA, 1e-9)
}

func TestRestoreTranscript_CorruptedSnapshotFallsBackToDefaults(t *testing.T) {
	store := newTestStore()
	snapshots := &fakeSnapshots{loadErr: transcript.ErrSnapshotCorrupted}
	h := NewRestoreTranscriptHandler(store, snapshots, nil, nil)

	result, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Restored)
	courses := store.AllCourses()
	assert.Len(t, courses, 2)
}

func TestRestoreTranscript_StorageFailurePropagates(t *testing.T) {
	store := newTestStore()
	snapshots := &fakeSnapshots{loadErr: errors.New("connection refused")}
	h := NewRestoreTranscriptHandler(store, snapshots, nil, nil)

	_, err := h.Handle(context.Background())
	assert.Error(t, err)
}
