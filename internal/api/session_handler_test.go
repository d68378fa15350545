package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"booking-service/internal/api"
	"booking-service/internal/model"
	"booking-service/internal/service"

	"github.com/gofiber/fiber/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubBookingService records status-update calls; other operations are not
// exercised by these tests.
type stubBookingService struct {
	updateCalls []model.SessionStatus
	session     *model.Session
}

func (s *stubBookingService) Book(context.Context, service.BookingRequest) (*model.Session, error) {
	return s.session, nil
}

func (s *stubBookingService) GetByID(context.Context, uuid.UUID) (*model.Session, error) {
	return s.session, nil
}

func (s *stubBookingService) ListForConsumer(context.Context, uuid.UUID) ([]model.Session, error) {
	return nil, nil
}

func (s *stubBookingService) ListForCreator(context.Context, uuid.UUID) ([]model.Session, error) {
	return nil, nil
}

func (s *stubBookingService) ListUpcomingForConsumer(context.Context, uuid.UUID) ([]model.Session, error) {
	return nil, nil
}

func (s *stubBookingService) ListCreatorSchedule(context.Context, uuid.UUID, time.Time, time.Time) ([]model.Session, error) {
	return nil, nil
}

func (s *stubBookingService) UpdateStatus(ctx context.Context, sessionID, actorID uuid.UUID, update service.StatusUpdate) (*model.Session, error) {
	s.updateCalls = append(s.updateCalls, update.Status)
	return s.session, nil
}

func (s *stubBookingService) Start(context.Context, uuid.UUID) (*model.Session, error) {
	return s.session, nil
}

func (s *stubBookingService) Complete(context.Context, uuid.UUID) (*model.Session, error) {
	return s.session, nil
}

func (s *stubBookingService) Cancel(context.Context, uuid.UUID, uuid.UUID, *string) (*model.Session, error) {
	return s.session, nil
}

func (s *stubBookingService) Annotate(context.Context, uuid.UUID, uuid.UUID, string) (*model.Session, error) {
	return s.session, nil
}

func bearerToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := jwtv5.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Minute * 15).Unix(),
	}
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return token
}

func newStatusTestApp(t *testing.T) (*fiber.App, *stubBookingService) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	stub := &stubBookingService{
		session: &model.Session{
			ID:         uuid.New(),
			ConsumerID: uuid.New(),
			CreatorID:  uuid.New(),
			Status:     model.SessionStatusConfirmed,
		},
	}
	handler := api.NewSessionHandler(stub)

	app := fiber.New()
	sessions := app.Group("/v1/sessions", api.AuthMiddleware())
	sessions.Patch("/:id/status", handler.UpdateSessionStatus)

	return app, stub
}

func patchStatus(t *testing.T, app *fiber.App, sessionID uuid.UUID, token string, status string) *http.Response {
	t.Helper()

	body, err := json.Marshal(fiber.Map{"status": status})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("/v1/sessions/%s/status", sessionID), bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

// The status endpoint only accepts the participant-gated targets. The system
// edges (in_progress, completed) live behind the internal-secret routes, so
// a plain JWT holder must not be able to start or complete a session here.
func TestUpdateSessionStatus_RejectsSystemEdges(t *testing.T) {
	app, stub := newStatusTestApp(t)
	token := bearerToken(t, uuid.New())
	sessionID := uuid.New()

	for _, status := range []string{"in_progress", "completed", "pending"} {
		resp := patchStatus(t, app, sessionID, token, status)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "status %q must be rejected", status)
	}

	require.Empty(t, stub.updateCalls)
}

func TestUpdateSessionStatus_AcceptsGatedTargets(t *testing.T) {
	app, stub := newStatusTestApp(t)
	token := bearerToken(t, uuid.New())
	sessionID := uuid.New()

	resp := patchStatus(t, app, sessionID, token, "confirmed")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = patchStatus(t, app, sessionID, token, "cancelled")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, []model.SessionStatus{
		model.SessionStatusConfirmed,
		model.SessionStatusCancelled,
	}, stub.updateCalls)
}

func TestUpdateSessionStatus_RequiresToken(t *testing.T) {
	app, stub := newStatusTestApp(t)

	body, err := json.Marshal(fiber.Map{"status": "confirmed"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("/v1/sessions/%s/status", uuid.New()), bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, stub.updateCalls)
}
