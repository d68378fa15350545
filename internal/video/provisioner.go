package video

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"booking-service/internal/model"

	"github.com/google/uuid"
)

// Room is the meeting resource attached to a confirmed session.
type Room struct {
	Provider model.VideoProvider
	RoomID   string
	JoinURL  string
}

// Provisioner creates meeting rooms. Production backends may call out to a
// third-party API; the static provisioner builds join URLs locally.
type Provisioner interface {
	CreateRoom(provider model.VideoProvider, sessionID uuid.UUID) (Room, error)
}

type staticProvisioner struct{}

func NewStaticProvisioner() Provisioner {
	return &staticProvisioner{}
}

// CreateRoom never fails: an unknown provider falls back to jitsi rather
// than erroring, so provisioning is never the reason a confirmation fails.
func (p *staticProvisioner) CreateRoom(provider model.VideoProvider, sessionID uuid.UUID) (Room, error) {
	roomID := roomIdentifier(sessionID)

	switch provider {
	case model.VideoProviderDaily:
		return Room{
			Provider: model.VideoProviderDaily,
			RoomID:   roomID,
			JoinURL:  fmt.Sprintf("https://marketplace.daily.co/%s", roomID),
		}, nil
	case model.VideoProviderJitsi:
		fallthrough
	default:
		return Room{
			Provider: model.VideoProviderJitsi,
			RoomID:   roomID,
			JoinURL:  fmt.Sprintf("https://meet.jit.si/%s", roomID),
		}, nil
	}
}

// roomIdentifier builds "session-<first uuid block>-<random suffix>". The
// suffix keeps room names unguessable even though session IDs appear in URLs.
func roomIdentifier(sessionID uuid.UUID) string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand failing means the process is in a bad way; fall
		// back to the session ID alone rather than aborting the confirm.
		return fmt.Sprintf("session-%s", sessionID)
	}

	return fmt.Sprintf("session-%.8s-%s", sessionID.String(), hex.EncodeToString(suffix))
}
