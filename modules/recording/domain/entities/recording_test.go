package entities

import (
	"testing"

	"maycast/server/seedwork/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecording(t *testing.T) {
	rec := NewRecording("R1", &RecordingMetadata{DisplayName: "Alice cam"})

	assert.Equal(t, RecordingStandby, rec.State)
	assert.Equal(t, "R1", rec.RoomID)
	assert.Equal(t, ProcessingPending, rec.ProcessingState)
	assert.Equal(t, ProcessingPending, rec.TranscriptionState)
	assert.Zero(t, rec.ChunkCount)
	assert.True(t, domain.IsValidID(rec.GetID()))
	assert.False(t, rec.StartTime.IsZero())
}

func TestRecordingState_SuccessPath(t *testing.T) {
	assert.True(t, RecordingStandby.CanTransitionTo(RecordingRecording))
	assert.True(t, RecordingRecording.CanTransitionTo(RecordingFinalizing))
	assert.True(t, RecordingFinalizing.CanTransitionTo(RecordingSynced))
}

func TestRecordingState_NoSkipsOrRegressions(t *testing.T) {
	assert.False(t, RecordingStandby.CanTransitionTo(RecordingFinalizing))
	assert.False(t, RecordingStandby.CanTransitionTo(RecordingSynced))
	assert.False(t, RecordingRecording.CanTransitionTo(RecordingSynced))
	assert.False(t, RecordingRecording.CanTransitionTo(RecordingStandby))
	assert.False(t, RecordingSynced.CanTransitionTo(RecordingStandby))
	assert.False(t, RecordingSynced.CanTransitionTo(RecordingRecording))
}

func TestRecordingState_Interrupted(t *testing.T) {
	// Reachable from every non-terminal state, never from a terminal one.
	assert.True(t, RecordingStandby.CanTransitionTo(RecordingInterrupted))
	assert.True(t, RecordingRecording.CanTransitionTo(RecordingInterrupted))
	assert.True(t, RecordingFinalizing.CanTransitionTo(RecordingInterrupted))
	assert.False(t, RecordingSynced.CanTransitionTo(RecordingInterrupted))
	assert.False(t, RecordingInterrupted.CanTransitionTo(RecordingInterrupted))
	assert.False(t, RecordingInterrupted.CanTransitionTo(RecordingRecording))
}

func TestRecordingState_MetadataMutable(t *testing.T) {
	assert.True(t, RecordingStandby.MetadataMutable())
	assert.True(t, RecordingRecording.MetadataMutable())
	assert.False(t, RecordingFinalizing.MetadataMutable())
	assert.False(t, RecordingSynced.MetadataMutable())
	assert.False(t, RecordingInterrupted.MetadataMutable())
}

func TestRecordingState_ValidateTransition(t *testing.T) {
	require.NoError(t, RecordingStandby.ValidateTransition(RecordingRecording))

	err := RecordingStandby.ValidateTransition(RecordingSynced)
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidTransition, de.Kind)

	err = RecordingStandby.ValidateTransition(RecordingState("paused"))
	de, ok = domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidOperation, de.Kind)
}

func TestRecording_Filename(t *testing.T) {
	rec := NewRecording("", &RecordingMetadata{DisplayName: "take-1"})
	assert.Equal(t, "take-1.mp4", rec.Filename())

	bare := NewRecording("", nil)
	assert.Equal(t, bare.GetID()+".mp4", bare.Filename())
}
