package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/video-service/internal/auth"
	"github.com/spec-kit/video-service/internal/config"
	"github.com/spec-kit/video-service/internal/domain"
	"github.com/spec-kit/video-service/internal/events"
	"github.com/spec-kit/video-service/internal/repository"
	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

const (
	studentEmailDomain = "adityatekkali.edu.in"
	adminEmail         = "admin@gmail.com"
	minPasswordLength  = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength  = 72
)

var errInvalidLogin = apperrors.NewDomainError(apperrors.CodeUnauthorized, "invalid credentials", http.StatusUnauthorized, nil)

var (
	validBranches = map[string]struct{}{
		"cse": {}, "it": {}, "csm": {}, "csd": {}, "csc": {}, "ece": {}, "eee": {}, "civil": {}, "mech": {},
	}
	validCourses  = map[string]struct{}{"btech": {}, "diploma": {}, "mba": {}, "mca": {}}
	validSections = map[string]struct{}{"A": {}, "B": {}, "C": {}, "D": {}, "E": {}, "F": {}}
)

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	FirstName       string
	LastName        string
	RollNo          string
	Password        string
	ConfirmPassword string
	Email           string
	Branch          string
	Course          string
	Year            *int
	Section         string
}

// Session is an issued credential together with its owner.
type Session struct {
	User      *domain.User
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// AccountService coordinates registration and login flows.
type AccountService struct {
	users         repository.UserRepository
	tokens        *auth.TokenManager
	revocations   auth.RevocationStore
	events        events.Dispatcher
	logger        *zap.Logger
	passwords     *auth.PasswordHasher
	rememberMeTTL time.Duration
	now           func() time.Time
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	UserRepo    repository.UserRepository
	Tokens      *auth.TokenManager
	Revocations auth.RevocationStore
	Events      events.Dispatcher
	Logger      *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	revocations := deps.Revocations
	if revocations == nil {
		revocations = auth.NoopRevocationStore{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		users:         deps.UserRepo,
		tokens:        deps.Tokens,
		revocations:   revocations,
		events:        deps.Events,
		logger:        logger,
		passwords:     auth.NewPasswordHasher(cfg.BcryptCost),
		rememberMeTTL: cfg.RememberMeTTL(),
		now:           time.Now,
	}
}

// Signup validates the input, derives the role from the roll number and
// creates the account.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.RollNo = strings.TrimSpace(in.RollNo)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validateSignup(in); err != nil {
		return nil, err
	}

	role, ok := domain.RoleForRollNo(in.RollNo)
	if !ok {
		return nil, apperrors.NewValidationError("invalid roll number format", map[string]any{"field": "rollNo"})
	}

	user := &domain.User{
		RollNo:    in.RollNo,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
	}

	switch role {
	case domain.RoleStudent:
		if in.Branch == "" || in.Course == "" || in.Year == nil || in.Section == "" {
			return nil, apperrors.NewValidationError("branch, course, year, and section are required for students", nil)
		}
		if err := validateStudentFields(in); err != nil {
			return nil, err
		}
		user.Email = in.RollNo + "@" + studentEmailDomain
		user.Branch, user.Course, user.Year, user.Section = in.Branch, in.Course, in.Year, in.Section
	case domain.RoleFaculty:
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return nil, apperrors.NewValidationError("a valid email is required", map[string]any{"field": "email"})
		}
		user.Email = in.Email
	case domain.RoleAdmin:
		user.Email = adminEmail
	}

	exists, err := s.users.ExistsByRollNoOrEmail(ctx, user.RollNo, user.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewConflict(repository.ErrDuplicateUser.Error(), nil)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperrors.NewConflict(err.Error(), nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.Stringer("role", user.Role))
	session, err := s.issue(user, 0)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserRegistered, user.ID, user.Role, events.SessionPayload{
		RollNo:    user.RollNo,
		TokenID:   session.TokenID,
		ExpiresAt: session.ExpiresAt,
	})
	return session, nil
}

// Login checks the password and issues a token. rememberMe selects the
// longer lifetime.
func (s *AccountService) Login(ctx context.Context, rollNo, password string, rememberMe bool) (*Session, error) {
	rollNo = strings.TrimSpace(rollNo)
	if rollNo == "" || password == "" {
		return nil, apperrors.NewValidationError("roll number and password are required", nil)
	}

	user, err := s.users.GetByRollNo(ctx, rollNo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.passwords.CompareMissing(password)
			return nil, errInvalidLogin
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.passwords.Compare(user.PasswordHash, password); err != nil {
		return nil, errInvalidLogin
	}
	s.upgradeHash(ctx, user, password)

	var ttl time.Duration
	if rememberMe {
		ttl = s.rememberMeTTL
	}
	session, err := s.issue(user, ttl)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventUserLoggedIn, user.ID, user.Role, events.SessionPayload{
		RollNo:     user.RollNo,
		TokenID:    session.TokenID,
		ExpiresAt:  session.ExpiresAt,
		RememberMe: rememberMe,
	})
	return session, nil
}

// Me loads the account behind verified claims.
func (s *AccountService) Me(ctx context.Context, claims *auth.Claims) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// Logout revokes the presented token until it would expire. With the noop
// store this is a no-op and the token stays valid until expiry.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ExpiresAt == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("token revoked", zap.String("user_id", claims.UserID), zap.String("jti", claims.ID))
	s.publish(ctx, events.EventUserLoggedOut, claims.UserID, claims.Role, events.SessionPayload{
		RollNo:    claims.RollNo,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	return nil
}

// upgradeHash re-hashes a password stored with an outdated cost. Failures
// leave the old hash in place.
func (s *AccountService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !s.passwords.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("password rehash failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}

func (s *AccountService) issue(user *domain.User, ttl time.Duration) (*Session, error) {
	token, claims, err := s.tokens.GenerateToken(user, ttl, s.now())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, userID string, role domain.Role, payload events.SessionPayload) {
	if s.events == nil {
		return
	}
	event := events.NewEvent(eventType, events.Actor{UserID: userID, Role: role}, payload)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func validateSignup(in SignupInput) error {
	missing := map[string]any{}
	if in.FirstName == "" {
		missing["firstName"] = "first name is required"
	}
	if in.LastName == "" {
		missing["lastName"] = "last name is required"
	}
	if in.RollNo == "" {
		missing["rollNo"] = "roll number is required"
	}
	if len(in.Password) < minPasswordLength {
		missing["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	} else if len(in.Password) > maxPasswordLength {
		missing["password"] = fmt.Sprintf("password must be at most %d bytes", maxPasswordLength)
	}
	if in.ConfirmPassword != in.Password {
		missing["confirmPassword"] = "passwords do not match"
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("invalid signup payload", missing)
	}
	return nil
}

func validateStudentFields(in SignupInput) error {
	details := map[string]any{}
	if _, ok := validBranches[in.Branch]; !ok {
		details["branch"] = "unknown branch"
	}
	if _, ok := validCourses[in.Course]; !ok {
		details["course"] = "unknown course"
	}
	if *in.Year < 1 || *in.Year > 4 {
		details["year"] = "year must be between 1 and 4"
	}
	if _, ok := validSections[in.Section]; !ok {
		details["section"] = "unknown section"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid student details", details)
	}
	return nil
}
