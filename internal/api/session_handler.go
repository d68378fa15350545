package api

import (
	"booking-service/internal/model"
	"booking-service/internal/service"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SessionHandler struct {
	bookingService service.BookingService
	validate       *validator.Validate
}

func NewSessionHandler(bookingService service.BookingService) *SessionHandler {
	return &SessionHandler{
		bookingService: bookingService,
		validate:       validator.New(),
	}
}

type BookSessionRequest struct {
	CreatorID       uuid.UUID `json:"creator_id" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=15"`
	Price           *float64  `json:"price,omitempty"`
	Currency        *string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	StudentNotes    *string   `json:"student_notes,omitempty" validate:"omitempty,max=1000"`
}

// Participant-gated targets only: the system edges (in_progress, completed)
// are reachable solely through the internal start/complete routes.
type UpdateStatusRequest struct {
	Status        model.SessionStatus  `json:"status" validate:"required,oneof=confirmed cancelled"`
	VideoProvider *model.VideoProvider `json:"video_provider,omitempty" validate:"omitempty,oneof=jitsi daily"`
	CreatorNotes  *string              `json:"creator_notes,omitempty" validate:"omitempty,max=1000"`
	CancelReason  *string              `json:"cancel_reason,omitempty" validate:"omitempty,max=500"`
}

type CancelSessionRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type AnnotateSessionRequest struct {
	Notes string `json:"notes" validate:"required,max=1000"`
}

// mapServiceError translates booking sentinels into HTTP responses. Every
// handler funnels service failures through here.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrScheduleConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPastSchedule),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrSameParticipants):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrNotCreator):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrRoomProvisioning):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		slog.ErrorContext(c.UserContext(), "Unexpected booking error", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	consumerID, err := GetUserIDFromClaims(c)

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request BookSessionRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	session, err := h.bookingService.Book(c.Context(), service.BookingRequest{
		ConsumerID:      consumerID,
		CreatorID:       request.CreatorID,
		ScheduledAt:     request.ScheduledAt,
		DurationMinutes: request.DurationMinutes,
		Price:           request.Price,
		Currency:        request.Currency,
		StudentNotes:    request.StudentNotes,
	})

	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	session, err := h.bookingService.GetByID(c.Context(), sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

// ListMySessions returns the caller's sessions, as consumer by default or
// as creator with ?role=creator.
func (h *SessionHandler) ListMySessions(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var sessions []model.Session
	if c.Query("role") == "creator" {
		sessions, err = h.bookingService.ListForCreator(c.Context(), userID)
	} else {
		sessions, err = h.bookingService.ListForConsumer(c.Context(), userID)
	}

	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *SessionHandler) ListUpcomingSessions(c *fiber.Ctx) error {
	userID, err := GetUserIDFromClaims(c)

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	sessions, err := h.bookingService.ListUpcomingForConsumer(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *SessionHandler) GetCreatorSchedule(c *fiber.Ctx) error {
	creatorID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid creator ID format"})
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid 'from' timestamp"})
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid 'to' timestamp"})
	}

	sessions, err := h.bookingService.ListCreatorSchedule(c.Context(), creatorID, from, to)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *SessionHandler) UpdateSessionStatus(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	userID, err := GetUserIDFromClaims(c)

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request UpdateStatusRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	session, err := h.bookingService.UpdateStatus(c.Context(), sessionID, userID, service.StatusUpdate{
		Status:        request.Status,
		VideoProvider: request.VideoProvider,
		CreatorNotes:  request.CreatorNotes,
		CancelReason:  request.CancelReason,
	})

	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	userID, err := GetUserIDFromClaims(c)

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request CancelSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
		}
		if err := h.validate.Struct(&request); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
		}
	}

	session, err := h.bookingService.Cancel(c.Context(), sessionID, userID, request.Reason)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

func (h *SessionHandler) AnnotateSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	userID, err := GetUserIDFromClaims(c)

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request AnnotateSessionRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	session, err := h.bookingService.Annotate(c.Context(), sessionID, userID, request.Notes)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

// StartSession and CompleteSession are system transitions behind the
// internal-secret middleware; they carry no participant identity.
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	session, err := h.bookingService.Start(c.Context(), sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID format"})
	}

	session, err := h.bookingService.Complete(c.Context(), sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(session)
}
