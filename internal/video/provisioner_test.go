package video_test

import (
	"testing"

	"booking-service/internal/model"
	"booking-service/internal/video"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom_Jitsi(t *testing.T) {
	p := video.NewStaticProvisioner()

	room, err := p.CreateRoom(model.VideoProviderJitsi, uuid.New())
	require.NoError(t, err)
	require.Equal(t, model.VideoProviderJitsi, room.Provider)
	require.NotEmpty(t, room.RoomID)
	require.Equal(t, "https://meet.jit.si/"+room.RoomID, room.JoinURL)
}

func TestCreateRoom_Daily(t *testing.T) {
	p := video.NewStaticProvisioner()

	room, err := p.CreateRoom(model.VideoProviderDaily, uuid.New())
	require.NoError(t, err)
	require.Equal(t, model.VideoProviderDaily, room.Provider)
	require.Equal(t, "https://marketplace.daily.co/"+room.RoomID, room.JoinURL)
}

// Unknown providers fall back to jitsi rather than erroring, so that
// provisioning is never the reason a confirmation fails.
func TestCreateRoom_UnknownProviderFallsBack(t *testing.T) {
	p := video.NewStaticProvisioner()

	room, err := p.CreateRoom(model.VideoProvider("zoom"), uuid.New())
	require.NoError(t, err)
	require.Equal(t, model.VideoProviderJitsi, room.Provider)
	require.Regexp(t, `^https://meet\.jit\.si/session-`, room.JoinURL)
}

func TestCreateRoom_UniqueRoomIDs(t *testing.T) {
	p := video.NewStaticProvisioner()
	sessionID := uuid.New()

	first, err := p.CreateRoom(model.VideoProviderJitsi, sessionID)
	require.NoError(t, err)
	second, err := p.CreateRoom(model.VideoProviderJitsi, sessionID)
	require.NoError(t, err)

	require.NotEqual(t, first.RoomID, second.RoomID)
}
