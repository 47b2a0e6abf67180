package api

import (
	"context"
	"errors"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/mkd-neo4j/odoo-support-mcp/internal/config"
)

const (
	roomEmptyTimeout    = 300 // seconds
	roomMaxParticipants = 2   // user + agent
	tokenValidity       = 6 * time.Hour
)

var ErrLiveKitNotConfigured = errors.New("LiveKit credentials not configured")

// publishSources are the tracks a support participant may publish.
var publishSources = []string{"microphone", "camera", "screen_share", "screen_share_audio"}

// RoomCreator creates transport rooms. *lksdk.RoomServiceClient satisfies it.
type RoomCreator interface {
	CreateRoom(ctx context.Context, req *livekit.CreateRoomRequest) (*livekit.Room, error)
}

// NewRoomCreator returns the LiveKit room service client for cfg.
func NewRoomCreator(cfg config.LiveKitConfig) (RoomCreator, error) {
	if !cfg.Configured() {
		return nil, ErrLiveKitNotConfigured
	}
	return lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret), nil
}

// IssueToken signs an access token that lets participant join room with microphone, camera
// and screen-share publishing.
func IssueToken(cfg config.LiveKitConfig, room, participant string) (string, error) {
	if !cfg.Configured() {
		return "", ErrLiveKitNotConfigured
	}

	grant := &auth.VideoGrant{
		RoomJoin:          true,
		Room:              room,
		CanPublishSources: publishSources,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)

	return auth.NewAccessToken(cfg.APIKey, cfg.APISecret).
		SetVideoGrant(grant).
		SetIdentity(participant).
		SetName(participant).
		SetValidFor(tokenValidity).
		ToJWT()
}

func createRoom(ctx context.Context, rooms RoomCreator, name string) (*livekit.Room, error) {
	return rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            name,
		EmptyTimeout:    roomEmptyTimeout,
		MaxParticipants: roomMaxParticipants,
	})
}
