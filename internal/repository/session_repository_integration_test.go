package repository

import (
	"booking-service/internal/model"
	"context"
	"log"
	"testing"
	"time"

	_ "booking-service/migrations"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type SessionRepositoryIntegrationTestSuite struct {
	suite.Suite
	db   *sqlx.DB
	repo SessionRepository
	pgc  *postgres.PostgresContainer
	ctx  context.Context

	consumerID uuid.UUID
	creatorID  uuid.UUID
}

func (s *SessionRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %s", err)
	}
	s.pgc = pgc

	connStr, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	assert.NoError(s.T(), err)

	db, err := sqlx.Connect("pgx", connStr)
	assert.NoError(s.T(), err)
	s.db = db

	goose.SetDialect("postgres")
	err = goose.Up(db.DB, "../../migrations")
	assert.NoError(s.T(), err)

	s.repo = NewPostgresSessionRepository(s.db)

	s.consumerID = s.insertUser("consumer@example.com", "Consumer", "consumer")
	s.creatorID = s.insertUser("creator@example.com", "Creator", "creator")
}

func (s *SessionRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.pgc != nil {
		s.pgc.Terminate(s.ctx)
	}
}

func (s *SessionRepositoryIntegrationTestSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, "DELETE FROM sessions")
	assert.NoError(s.T(), err)
}

func (s *SessionRepositoryIntegrationTestSuite) insertUser(email, name, role string) uuid.UUID {
	var id uuid.UUID
	err := s.db.GetContext(s.ctx, &id,
		`INSERT INTO users (email, name, role) VALUES ($1, $2, $3) RETURNING id`, email, name, role)
	assert.NoError(s.T(), err)
	return id
}

func (s *SessionRepositoryIntegrationTestSuite) insertSession(at time.Time, minutes int, status model.SessionStatus) *model.Session {
	session := &model.Session{
		ConsumerID:      s.consumerID,
		CreatorID:       s.creatorID,
		ScheduledAt:     at,
		DurationMinutes: minutes,
		Status:          model.SessionStatusPending,
	}
	created, err := s.repo.Insert(s.ctx, session)
	assert.NoError(s.T(), err)

	if status != model.SessionStatusPending {
		updated, err := s.repo.UpdateFields(s.ctx, created.ID, SessionUpdate{Status: &status})
		assert.NoError(s.T(), err)
		return updated
	}

	return created
}

func (s *SessionRepositoryIntegrationTestSuite) TestInsertAndFindByID() {
	at := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	created := s.insertSession(at, 60, model.SessionStatusPending)

	found, err := s.repo.FindByID(s.ctx, created.ID)
	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), found)
	assert.Equal(s.T(), model.SessionStatusPending, found.Status)
	assert.Equal(s.T(), 60, found.DurationMinutes)
	assert.True(s.T(), found.ScheduledAt.Equal(at))
	assert.Nil(s.T(), found.RoomID)
}

func (s *SessionRepositoryIntegrationTestSuite) TestFindActiveOverlapping() {
	base := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Hour)
	s.insertSession(base, 60, model.SessionStatusConfirmed)

	// Mid-window proposal overlaps.
	overlapping, err := s.repo.FindActiveOverlapping(s.ctx, s.creatorID, base.Add(30*time.Minute), base.Add(60*time.Minute))
	assert.NoError(s.T(), err)
	assert.Len(s.T(), overlapping, 1)

	// Back-to-back proposal does not.
	adjacent, err := s.repo.FindActiveOverlapping(s.ctx, s.creatorID, base.Add(60*time.Minute), base.Add(90*time.Minute))
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), adjacent)
}

func (s *SessionRepositoryIntegrationTestSuite) TestPendingNotReturnedAsActive() {
	base := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Hour)
	s.insertSession(base, 60, model.SessionStatusPending)

	overlapping, err := s.repo.FindActiveOverlapping(s.ctx, s.creatorID, base, base.Add(time.Hour))
	assert.NoError(s.T(), err)
	assert.Empty(s.T(), overlapping)
}

func (s *SessionRepositoryIntegrationTestSuite) TestExclusionConstraintBlocksOverlappingActive() {
	base := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Hour)
	s.insertSession(base, 60, model.SessionStatusConfirmed)

	second := s.insertSession(base.Add(30*time.Minute), 60, model.SessionStatusPending)

	status := model.SessionStatusConfirmed
	_, err := s.repo.UpdateFields(s.ctx, second.ID, SessionUpdate{Status: &status})
	assert.Error(s.T(), err)
	assert.True(s.T(), IsOverlapViolation(err))
}

func (s *SessionRepositoryIntegrationTestSuite) TestUpdateFieldsAttachesRoom() {
	created := s.insertSession(time.Now().Add(24*time.Hour).UTC(), 30, model.SessionStatusPending)

	status := model.SessionStatusConfirmed
	provider := model.VideoProviderJitsi
	roomID := "session-test-room"
	joinURL := "https://meet.jit.si/session-test-room"

	updated, err := s.repo.UpdateFields(s.ctx, created.ID, SessionUpdate{
		Status:        &status,
		VideoProvider: &provider,
		RoomID:        &roomID,
		JoinURL:       &joinURL,
	})
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), model.SessionStatusConfirmed, updated.Status)
	assert.Equal(s.T(), roomID, *updated.RoomID)
	assert.Equal(s.T(), joinURL, *updated.JoinURL)
}

func (s *SessionRepositoryIntegrationTestSuite) TestFindInWindowOrdering() {
	base := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Hour)
	s.insertSession(base.Add(2*time.Hour), 30, model.SessionStatusPending)
	s.insertSession(base, 30, model.SessionStatusConfirmed)
	s.insertSession(base.Add(time.Hour), 30, model.SessionStatusCancelled)

	sessions, err := s.repo.FindInWindow(s.ctx, s.creatorID, base, base.Add(6*time.Hour))
	assert.NoError(s.T(), err)
	assert.Len(s.T(), sessions, 3)
	for i := 1; i < len(sessions); i++ {
		assert.True(s.T(), !sessions[i].ScheduledAt.Before(sessions[i-1].ScheduledAt))
	}
}

func TestSessionRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SessionRepositoryIntegrationTestSuite))
}
