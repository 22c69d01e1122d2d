package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/video-service/internal/auth"
	"github.com/spec-kit/video-service/internal/config"
	"github.com/spec-kit/video-service/internal/domain"
	"github.com/spec-kit/video-service/internal/events"
	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) GetByRollNo(_ context.Context, rollNo string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RollNo == rollNo {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) ExistsByRollNoOrEmail(_ context.Context, rollNo, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RollNo == rollNo || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

type recordingRevocations struct {
	revoked map[string]time.Time
}

func (r *recordingRevocations) Revoke(_ context.Context, id string, exp time.Time) error {
	r.revoked[id] = exp
	return nil
}

func (r *recordingRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, nil
}

func newTestService(t *testing.T) (*AccountService, *auth.TokenManager, *recordingRevocations) {
	t.Helper()
	tm := auth.NewTokenManager("secret", time.Hour)
	revs := &recordingRevocations{revoked: map[string]time.Time{}}
	svc := NewAccountService(config.AuthConfig{BcryptCost: bcrypt.MinCost, RememberMeTTLHours: 168}, AccountDependencies{
		UserRepo:    newMemoryUsers(),
		Tokens:      tm,
		Revocations: revs,
	})
	return svc, tm, revs
}

func intPtr(v int) *int { return &v }

func studentInput() SignupInput {
	return SignupInput{
		FirstName:       "Asha",
		LastName:        "Rao",
		RollNo:          "21A91A0501",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Branch:          "cse",
		Course:          "btech",
		Year:            intPtr(3),
		Section:         "B",
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestSignupDerivesRoleAndEmail(t *testing.T) {
	svc, tm, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, studentInput())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, session.User.Role)
	assert.Equal(t, "21A91A0501@adityatekkali.edu.in", session.User.Email)
	assert.NotEqual(t, "hunter22", session.User.PasswordHash)

	claims, err := tm.Verify(session.Token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)

	faculty, err := svc.Signup(ctx, SignupInput{
		FirstName: "Ravi", LastName: "K", RollNo: "A123456789",
		Password: "secret1", ConfirmPassword: "secret1", Email: "Ravi@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFaculty, faculty.User.Role)
	assert.Equal(t, "ravi@example.com", faculty.User.Email)
	assert.Empty(t, faculty.User.Branch)

	admin, err := svc.Signup(ctx, SignupInput{
		FirstName: "Root", LastName: "Admin", RollNo: "admin",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.User.Role)
	assert.Equal(t, "admin@gmail.com", admin.User.Email)
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mismatch := studentInput()
	mismatch.ConfirmPassword = "other"
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Signup(ctx, mismatch))))

	badRoll := studentInput()
	badRoll.RollNo = "XYZ"
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Signup(ctx, badRoll))))

	noBranch := studentInput()
	noBranch.Branch = ""
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Signup(ctx, noBranch))))

	badYear := studentInput()
	badYear.Year = intPtr(5)
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Signup(ctx, badYear))))

	longPassword := studentInput()
	longPassword.Password = strings.Repeat("p", 73)
	longPassword.ConfirmPassword = longPassword.Password
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Signup(ctx, longPassword))))

	facultyNoEmail := SignupInput{FirstName: "a", LastName: "b", RollNo: "A123456789", Password: "secret1", ConfirmPassword: "secret1"}
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Signup(ctx, facultyNoEmail))))

	_, err := svc.Signup(ctx, studentInput())
	require.NoError(t, err)
	assert.Equal(t, apperrors.CodeConflict, domainCode(t, errOnly(svc.Signup(ctx, studentInput()))))
}

func TestLogin(t *testing.T) {
	svc, tm, _ := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Signup(ctx, studentInput())
	require.NoError(t, err)

	session, err := svc.Login(ctx, "21A91A0501", "hunter22", false)
	require.NoError(t, err)
	assert.True(t, now.Add(time.Hour).Equal(session.ExpiresAt))

	remembered, err := svc.Login(ctx, "21A91A0501", "hunter22", true)
	require.NoError(t, err)
	assert.True(t, now.Add(7*24*time.Hour).Equal(remembered.ExpiresAt))
	_, err = tm.Verify(remembered.Token, now.Add(6*24*time.Hour))
	assert.NoError(t, err)

	assert.Equal(t, apperrors.CodeUnauthorized, domainCode(t, errOnly(svc.Login(ctx, "21A91A0501", "wrong", false))))
	assert.Equal(t, apperrors.CodeUnauthorized, domainCode(t, errOnly(svc.Login(ctx, "0000000000", "hunter22", false))))
	assert.Equal(t, apperrors.CodeValidation, domainCode(t, errOnly(svc.Login(ctx, "", "", false))))
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	users := newMemoryUsers()
	tm := auth.NewTokenManager("secret", time.Hour)
	weak := NewAccountService(config.AuthConfig{BcryptCost: bcrypt.MinCost, RememberMeTTLHours: 168}, AccountDependencies{UserRepo: users, Tokens: tm})
	strong := NewAccountService(config.AuthConfig{BcryptCost: bcrypt.MinCost + 1, RememberMeTTLHours: 168}, AccountDependencies{UserRepo: users, Tokens: tm})
	ctx := context.Background()

	signup, err := weak.Signup(ctx, studentInput())
	require.NoError(t, err)

	_, err = strong.Login(ctx, "21A91A0501", "hunter22", false)
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, signup.User.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)

	_, err = weak.Login(ctx, "21A91A0501", "hunter22", false)
	assert.NoError(t, err)
}

func TestMeAndLogout(t *testing.T) {
	svc, tm, revs := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, studentInput())
	require.NoError(t, err)
	claims, err := tm.Verify(session.Token, time.Now())
	require.NoError(t, err)

	me, err := svc.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, me.ID)

	_, err = svc.Me(ctx, &auth.Claims{UserID: "missing"})
	assert.Equal(t, apperrors.CodeNotFound, domainCode(t, err))

	require.NoError(t, svc.Logout(ctx, claims))
	assert.Contains(t, revs.revoked, claims.ID)
	assert.Equal(t, claims.ExpiresAt.Time, revs.revoked[claims.ID])
}

func TestAccountEventsArePublished(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var got []events.Event
	for _, eventType := range events.AllTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			got = append(got, e)
			return nil
		})
	}

	tm := auth.NewTokenManager("secret", time.Hour)
	svc := NewAccountService(config.AuthConfig{BcryptCost: bcrypt.MinCost, RememberMeTTLHours: 168}, AccountDependencies{
		UserRepo:    newMemoryUsers(),
		Tokens:      tm,
		Revocations: &recordingRevocations{revoked: map[string]time.Time{}},
		Events:      dispatcher,
	})
	ctx := context.Background()

	signup, err := svc.Signup(ctx, studentInput())
	require.NoError(t, err)
	login, err := svc.Login(ctx, "21A91A0501", "hunter22", true)
	require.NoError(t, err)
	claims, err := tm.Verify(login.Token, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	require.Len(t, got, 3)
	assert.Equal(t, events.EventUserRegistered, got[0].Type)
	assert.Equal(t, events.EventUserLoggedIn, got[1].Type)
	assert.Equal(t, events.EventUserLoggedOut, got[2].Type)
	for _, e := range got {
		assert.Equal(t, signup.User.ID, e.Actor.UserID)
		assert.Equal(t, domain.RoleStudent, e.Actor.Role)
	}

	loginPayload, ok := got[1].Payload.(events.SessionPayload)
	require.True(t, ok)
	assert.True(t, loginPayload.RememberMe)
	assert.Equal(t, login.TokenID, loginPayload.TokenID)
	assert.Equal(t, claims.ID, got[2].Payload.(events.SessionPayload).TokenID)
}

func errOnly[T any](_ T, err error) error {
	return err
}
