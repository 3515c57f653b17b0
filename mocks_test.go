package storefront_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-repository-bun"
	storefront "github.com/goliatone/go-storefront"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentity mocks the Identity interface used when minting tokens
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) DisplayName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Avatar() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// recordingLogger captures formatted log lines so tests can assert on log
// output where it is part of the contract.
type recordingLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{lines: map[string][]string{}}
}

func (l *recordingLogger) log(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines[level] = append(l.lines[level], fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.log("debug", format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.log("info", format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.log("warn", format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.log("error", format, args...) }

func (l *recordingLogger) has(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines[level] {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// stubUserStore is an in-memory UserStore
type stubUserStore struct {
	bySubject map[string]*storefront.User
	byID      map[string]*storefront.User

	created []*storefront.User
	updated []*storefront.User
	touched []uuid.UUID

	createErr  error
	updateErr  error
	touchErr   error
	getByIDErr error
}

var _ storefront.UserStore = (*stubUserStore)(nil)

func (s *stubUserStore) GetBySubject(ctx context.Context, subject string) (*storefront.User, error) {
	if user, ok := s.bySubject[subject]; ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"subject": subject,
		})
}

func (s *stubUserStore) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*storefront.User, error) {
	if s.getByIDErr != nil {
		return nil, s.getByIDErr
	}
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"id": id,
		})
}

func (s *stubUserStore) Create(ctx context.Context, record *storefront.User, criteria ...repository.InsertCriteria) (*storefront.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = storefront.RoleUser
	}
	s.created = append(s.created, record)
	s.index(record)
	return record, nil
}

func (s *stubUserStore) Update(ctx context.Context, record *storefront.User, criteria ...repository.UpdateCriteria) (*storefront.User, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.updated = append(s.updated, record)
	s.index(record)
	return record, nil
}

func (s *stubUserStore) TouchLastLogin(ctx context.Context, user *storefront.User) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	s.touched = append(s.touched, user.ID)
	return nil
}

func (s *stubUserStore) index(record *storefront.User) {
	if s.bySubject == nil {
		s.bySubject = map[string]*storefront.User{}
	}
	if s.byID == nil {
		s.byID = map[string]*storefront.User{}
	}
	if record.Subject != "" {
		s.bySubject[record.Subject] = record
	}
	s.byID[record.ID.String()] = record
}

type roleChange struct {
	id   uuid.UUID
	role storefront.UserRole
}

// stubRoleStore is an in-memory RoleStore
type stubRoleStore struct {
	users   map[string]*storefront.User
	changes []roleChange
	err     error
}

var _ storefront.RoleStore = (*stubRoleStore)(nil)

func (s *stubRoleStore) UpdateRole(ctx context.Context, id uuid.UUID, role storefront.UserRole) (*storefront.User, error) {
	if s.err != nil {
		return nil, s.err
	}

	user, ok := s.users[id.String()]
	if !ok {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	user.Role = role
	s.changes = append(s.changes, roleChange{id: id, role: role})
	return user, nil
}

// sessionClaimsFor builds valid session claims for a user ID and role.
func sessionClaimsFor(userID, role string) *storefront.SessionClaims {
	now := time.Now()
	return &storefront.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:          userID,
		UserRole:     role,
		TokenPurpose: storefront.PurposeSession,
	}
}
