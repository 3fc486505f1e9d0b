package entities

import (
	"testing"

	"maycast/server/seedwork/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom(t *testing.T) {
	room := NewRoom()

	assert.Equal(t, RoomIdle, room.State)
	assert.NotEmpty(t, room.GetID())
	assert.NotEmpty(t, room.AccessKey)
	assert.NotEmpty(t, room.AccessToken)
	assert.NotEqual(t, room.AccessKey, room.AccessToken)

	other := NewRoom()
	assert.NotEqual(t, room.AccessKey, other.AccessKey)
}

func TestRoomState_CanTransitionTo(t *testing.T) {
	// The only legal walk is idle → recording → finalizing → finished → idle.
	legal := map[RoomState]RoomState{
		RoomIdle:       RoomRecording,
		RoomRecording:  RoomFinalizing,
		RoomFinalizing: RoomFinished,
		RoomFinished:   RoomIdle,
	}
	all := []RoomState{RoomIdle, RoomRecording, RoomFinalizing, RoomFinished}
	for _, from := range all {
		for _, to := range all {
			want := legal[from] == to
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTransitionForCommand(t *testing.T) {
	next, err := TransitionForCommand(RoomIdle, CommandStart)
	require.NoError(t, err)
	assert.Equal(t, RoomRecording, next)

	next, err = TransitionForCommand(RoomRecording, CommandStop)
	require.NoError(t, err)
	assert.Equal(t, RoomFinalizing, next)

	next, err = TransitionForCommand(RoomFinished, CommandReset)
	require.NoError(t, err)
	assert.Equal(t, RoomIdle, next)
}

func TestTransitionForCommand_Illegal(t *testing.T) {
	cases := []struct {
		state RoomState
		cmd   RoomCommand
	}{
		{RoomRecording, CommandStart},
		{RoomFinalizing, CommandStart},
		{RoomFinished, CommandStart},
		{RoomIdle, CommandStop},
		{RoomFinalizing, CommandStop},
		{RoomIdle, CommandReset},
		{RoomRecording, CommandReset},
		{RoomFinalizing, CommandReset},
	}
	for _, tc := range cases {
		_, err := TransitionForCommand(tc.state, tc.cmd)
		require.Error(t, err, "%s in %s", tc.cmd, tc.state)
		de, ok := domain.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, domain.KindInvalidTransition, de.Kind)
	}
}

func TestTransitionForCommand_UnknownCommand(t *testing.T) {
	_, err := TransitionForCommand(RoomIdle, RoomCommand("pause"))
	require.Error(t, err)
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidOperation, de.Kind)
}
