package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/dialogue"
	"github.com/vetchat/chatbot-server-go/internal/model"
	"github.com/vetchat/chatbot-server-go/internal/repository"
)

// fakeTx runs fn without a real transaction and records whether it committed.
type fakeTx struct {
	calls     int
	committed int
}

func (f *fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	f.calls++
	if err := fn(nil); err != nil {
		return err
	}
	f.committed++
	return nil
}

// bound counts WithTx calls so tests can check work ran inside the transaction.
type mockSessionRepo struct {
	mock.Mock
	bound int
}

func (m *mockSessionRepo) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) Save(ctx context.Context, params model.SaveSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) MarkAppointmentCompleted(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockSessionRepo) List(ctx context.Context) ([]model.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *mockSessionRepo) CloseIdle(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	m.bound++
	return m
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindRecent(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindBySession(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindPage(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error) {
	args := m.Called(ctx, sessionID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockMessageRepo) WithTx(tx *sqlx.Tx) repository.MessageRepository {
	return m
}

type mockContextRepo struct {
	mock.Mock
	bound int
}

func (m *mockContextRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Context, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Context), args.Error(1)
}

func (m *mockContextRepo) CreateIfAbsent(ctx context.Context, sessionID string, data model.ContextData) (*model.Context, error) {
	args := m.Called(ctx, sessionID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Context), args.Error(1)
}

func (m *mockContextRepo) WithTx(tx *sqlx.Tx) repository.ContextRepository {
	m.bound++
	return m
}

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Create(ctx context.Context, params model.CreateAppointmentParams) (*model.Appointment, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) FindLatestBySession(ctx context.Context, sessionID string) (*model.Appointment, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) WithTx(tx *sqlx.Tx) repository.AppointmentRepository {
	return m
}

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Turn(ctx context.Context, session *model.Session, userMessage string, history []model.Message) (*dialogue.TurnResult, error) {
	args := m.Called(ctx, session, userMessage, history)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dialogue.TurnResult), args.Error(1)
}

type mockLocker struct {
	mock.Mock
	released int
}

func (m *mockLocker) Acquire(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(subject string, data any) error {
	args := m.Called(subject, data)
	return args.Error(0)
}
