package service

import (
	"booking-service/internal/events"
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"booking-service/internal/video"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const minSessionMinutes = 15

// BookingRequest carries the caller-supplied fields of a new booking.
// Scheduling fields are mandatory; the rest pass through to the record.
type BookingRequest struct {
	ConsumerID      uuid.UUID
	CreatorID       uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	Price           *float64
	Currency        *string
	StudentNotes    *string
}

// StatusUpdate carries the mutable fields a transition may attach. Creator
// notes are applied whenever the acting user is the creator, independent of
// which transition was requested.
type StatusUpdate struct {
	Status        model.SessionStatus
	VideoProvider *model.VideoProvider
	CreatorNotes  *string
	CancelReason  *string
}

type BookingService interface {
	Book(ctx context.Context, req BookingRequest) (*model.Session, error)
	GetByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	ListForConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Session, error)
	ListForCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Session, error)
	ListUpcomingForConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Session, error)
	ListCreatorSchedule(ctx context.Context, creatorID uuid.UUID, from, to time.Time) ([]model.Session, error)
	UpdateStatus(ctx context.Context, sessionID, actorID uuid.UUID, update StatusUpdate) (*model.Session, error)
	Start(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	Complete(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	Cancel(ctx context.Context, sessionID, actorID uuid.UUID, reason *string) (*model.Session, error)
	Annotate(ctx context.Context, sessionID, actorID uuid.UUID, notes string) (*model.Session, error)
}

type bookingService struct {
	sessionRepo repository.SessionRepository
	provisioner video.Provisioner
	publisher   events.EventPublisher
	locks       *creatorLocks

	// now is injected so future/past checks are deterministic in tests.
	now func() time.Time
}

func NewBookingService(repo repository.SessionRepository, provisioner video.Provisioner, pub events.EventPublisher) BookingService {
	return &bookingService{
		sessionRepo: repo,
		provisioner: provisioner,
		publisher:   pub,
		locks:       newCreatorLocks(),
		now:         time.Now,
	}
}

func (s *bookingService) Book(ctx context.Context, req BookingRequest) (*model.Session, error) {
	if req.DurationMinutes < minSessionMinutes {
		return nil, ErrInvalidDuration
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, ErrPastSchedule
	}
	if req.ConsumerID == req.CreatorID {
		return nil, ErrSameParticipants
	}

	// Serialize check-then-insert per creator. Without this two racing
	// requests could both pass the overlap check; the DB exclusion
	// constraint still protects against writers on other instances.
	release := s.locks.acquire(req.CreatorID)
	defer release()

	if err := s.checkConflict(ctx, req.CreatorID, req.ScheduledAt, req.DurationMinutes); err != nil {
		return nil, err
	}

	session := &model.Session{
		ConsumerID:      req.ConsumerID,
		CreatorID:       req.CreatorID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          model.SessionStatusPending,
		Price:           req.Price,
		Currency:        req.Currency,
		StudentNotes:    req.StudentNotes,
	}

	created, err := s.sessionRepo.Insert(ctx, session)
	if err != nil {
		if repository.IsOverlapViolation(err) {
			return nil, ErrScheduleConflict
		}
		return nil, err
	}

	go s.publisher.PublishSessionBooked(created)

	return created, nil
}

// checkConflict is the conflict detector: the proposal [start, end) clashes
// with any confirmed or in-progress session for the creator whose window
// intersects it. Pending sessions never block.
func (s *bookingService) checkConflict(ctx context.Context, creatorID uuid.UUID, start time.Time, durationMinutes int) error {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	overlapping, err := s.sessionRepo.FindActiveOverlapping(ctx, creatorID, start, end)
	if err != nil {
		return err
	}

	if len(overlapping) > 0 {
		return ErrScheduleConflict
	}

	return nil
}

func (s *bookingService) GetByID(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (s *bookingService) ListForConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Session, error) {
	return s.sessionRepo.FindByConsumer(ctx, consumerID)
}

func (s *bookingService) ListForCreator(ctx context.Context, creatorID uuid.UUID) ([]model.Session, error) {
	return s.sessionRepo.FindByCreator(ctx, creatorID)
}

func (s *bookingService) ListUpcomingForConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Session, error) {
	return s.sessionRepo.FindUpcomingByConsumer(ctx, consumerID, s.now())
}

func (s *bookingService) ListCreatorSchedule(ctx context.Context, creatorID uuid.UUID, from, to time.Time) ([]model.Session, error) {
	return s.sessionRepo.FindInWindow(ctx, creatorID, from, to)
}

func (s *bookingService) UpdateStatus(ctx context.Context, sessionID, actorID uuid.UUID, update StatusUpdate) (*model.Session, error) {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := checkTransition(session, actorID, update.Status); err != nil {
		return nil, err
	}

	fields := repository.SessionUpdate{Status: &update.Status}

	switch update.Status {
	case model.SessionStatusConfirmed:
		// Pending sessions do not block each other, so two overlapping
		// requests can coexist until one confirms. The conflict check
		// runs again here, under the creator lock, so only the first
		// confirmation wins the window.
		release := s.locks.acquire(session.CreatorID)
		defer release()

		if err := s.checkConflict(ctx, session.CreatorID, session.ScheduledAt, session.DurationMinutes); err != nil {
			return nil, err
		}

		// Room metadata is attached to the same write as the status so
		// the store never observes confirmed without a room. Never
		// overwrite an existing room.
		if session.RoomID == nil {
			provider := model.VideoProviderJitsi
			if update.VideoProvider != nil {
				provider = *update.VideoProvider
			}

			room, err := s.provisioner.CreateRoom(provider, session.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrRoomProvisioning, err)
			}

			fields.VideoProvider = &room.Provider
			fields.RoomID = &room.RoomID
			fields.JoinURL = &room.JoinURL
		}
	case model.SessionStatusInProgress:
		startedAt := s.now()
		fields.StartedAt = &startedAt
	case model.SessionStatusCompleted:
		endedAt := s.now()
		fields.EndedAt = &endedAt
	case model.SessionStatusCancelled:
		if update.CancelReason != nil {
			fields.CancelReason = update.CancelReason
		}
	}

	// Creator notes attach opportunistically to any transition the creator
	// requests; a dedicated Annotate operation exists for updates outside
	// a transition.
	if update.CreatorNotes != nil && actorID == session.CreatorID {
		fields.CreatorNotes = update.CreatorNotes
	}

	updated, err := s.sessionRepo.UpdateFields(ctx, sessionID, fields)
	if err != nil {
		if repository.IsOverlapViolation(err) {
			return nil, ErrScheduleConflict
		}
		return nil, err
	}
	if updated == nil {
		return nil, ErrSessionNotFound
	}

	go s.publisher.PublishStatusChanged(updated, session.Status)

	return updated, nil
}

// Start moves a confirmed session to in_progress. System action: the caller
// carries no participant identity, so the creator is used as the acting
// identity for the non-gated edge.
func (s *bookingService) Start(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.UpdateStatus(ctx, sessionID, session.CreatorID, StatusUpdate{Status: model.SessionStatusInProgress})
}

// Complete moves an in-progress session to completed. System action.
func (s *bookingService) Complete(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.UpdateStatus(ctx, sessionID, session.CreatorID, StatusUpdate{Status: model.SessionStatusCompleted})
}

func (s *bookingService) Cancel(ctx context.Context, sessionID, actorID uuid.UUID, reason *string) (*model.Session, error) {
	return s.UpdateStatus(ctx, sessionID, actorID, StatusUpdate{
		Status:       model.SessionStatusCancelled,
		CancelReason: reason,
	})
}

// Annotate lets the creator attach notes without requesting a transition.
func (s *bookingService) Annotate(ctx context.Context, sessionID, actorID uuid.UUID, notes string) (*model.Session, error) {
	session, err := s.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if actorID != session.CreatorID {
		return nil, ErrNotCreator
	}

	updated, err := s.sessionRepo.UpdateFields(ctx, sessionID, repository.SessionUpdate{CreatorNotes: &notes})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrSessionNotFound
	}

	return updated, nil
}
