// ABOUTME: Account registration, login with device binding, and password reset
// ABOUTME: Turns store and credential failures into typed account errors

package account

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Vladimir-28/FitLife/internal/auth"
	"github.com/Vladimir-28/FitLife/internal/mailer"
	"github.com/Vladimir-28/FitLife/internal/store"
)

const (
	minNameLength     = 3
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72

	adminName = "Administrador"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Throttle decides whether a keyed action may run now
type Throttle interface {
	Allow(key string) bool
}

// Options tune a Service
type Options struct {
	ResetTokenTTL time.Duration
	// ResetThrottle limits forgot-password requests per email. Nil means no limit.
	ResetThrottle Throttle
	// ExposeResetToken returns the token from ForgotPassword instead of only mailing it.
	ExposeResetToken bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service implements the account operations
type Service struct {
	users       store.UserStore
	hasher      auth.PasswordHasher
	issuer      auth.TokenIssuer
	mail        mailer.Mailer
	resetTTL    time.Duration
	throttle    Throttle
	exposeReset bool
	now         func() time.Time
	logger      *slog.Logger
}

// NewService creates an account Service
func NewService(users store.UserStore, hasher auth.PasswordHasher, issuer auth.TokenIssuer, mail mailer.Mailer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		users:       users,
		hasher:      hasher,
		issuer:      issuer,
		mail:        mail,
		resetTTL:    opts.ResetTokenTTL,
		throttle:    opts.ResetThrottle,
		exposeReset: opts.ExposeResetToken,
		now:         opts.Now,
		logger:      logger.With("component", "account"),
	}
}

// RegisterInput is the data needed to create an account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	DeviceID string
}

// LoginInput carries credentials and the optional device identifier
type LoginInput struct {
	Email    string
	Password string
	DeviceID string
}

// Session is a user together with a freshly issued bearer token
type Session struct {
	User  *store.User
	Token string
}

// ResetRequest is the outcome of ForgotPassword. Token is only filled when
// the service exposes reset tokens and the account exists.
type ResetRequest struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and signs a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	deviceID := strings.TrimSpace(in.DeviceID)

	if utf8.RuneCountInString(name) < minNameLength {
		return nil, validation(MsgNameTooShort)
	}
	if !emailPattern.MatchString(email) {
		return nil, validation(MsgInvalidEmail)
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hashing password", err)
	}

	user := &store.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if deviceID != "" {
		user.DeviceID = &deviceID
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			return nil, &Error{Kind: KindConflict, Message: MsgEmailTaken}
		case errors.Is(err, store.ErrDeviceTaken):
			return nil, &Error{Kind: KindConflict, Message: MsgDeviceClaimed}
		default:
			return nil, internal("creating user", err)
		}
	}

	s.logger.Info("user registered", "user_id", user.ID, "device_bound", user.HasDevice())
	return s.session(user)
}

// Login verifies credentials and applies the device binding policy when a
// device id is supplied: an unbound account claims the device unless another
// account holds it, and a bound account only accepts its own device.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	deviceID := strings.TrimSpace(in.DeviceID)

	if email == "" || in.Password == "" {
		return nil, validation(MsgCredentialsNeeded)
	}

	user, err := s.authenticate(ctx, email, in.Password)
	if err != nil {
		return nil, err
	}

	if deviceID != "" {
		if err := s.users.BindDevice(ctx, user.ID, deviceID); err != nil {
			switch {
			case errors.Is(err, store.ErrDeviceTaken):
				s.logger.Warn("login rejected: device claimed by another account", "user_id", user.ID)
				return nil, &Error{Kind: KindForbidden, Message: MsgDeviceClaimed}
			case errors.Is(err, store.ErrDeviceMismatch):
				s.logger.Warn("login rejected: account bound to another device", "user_id", user.ID)
				return nil, &Error{Kind: KindForbidden, Message: MsgDeviceMismatch}
			default:
				return nil, internal("binding device", err)
			}
		}
		user.DeviceID = &deviceID
	}

	return s.session(user)
}

// ForgotPassword starts a reset for email. Blank or unknown emails and
// throttled repeats succeed silently without issuing a token.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*ResetRequest, error) {
	email = normalizeEmail(email)
	if email == "" {
		s.logger.Debug("password reset without email")
		return &ResetRequest{}, nil
	}

	// Checked before the lookup so known and unknown addresses behave alike.
	if s.throttle != nil && !s.throttle.Allow(email) {
		s.logger.Debug("password reset throttled")
		return &ResetRequest{}, nil
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Debug("password reset for unknown email")
		return &ResetRequest{}, nil
	}
	if err != nil {
		return nil, internal("looking up user", err)
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return nil, internal("generating reset token", err)
	}
	expiresAt := s.now().Add(s.resetTTL)

	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return nil, internal("storing reset token", err)
	}

	// Delivery failures stay invisible to the caller, otherwise the
	// response would reveal that the account exists.
	if err := s.mail.SendPasswordReset(ctx, mailer.PasswordReset{
		To:        user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresAt: expiresAt,
	}); err != nil {
		s.logger.Error("failed to send reset email", "user_id", user.ID, "error", err)
	}

	if !s.exposeReset {
		return &ResetRequest{}, nil
	}
	return &ResetRequest{Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyResetToken reports, via a nil error, that token is the live reset
// token for email.
func (s *Service) VerifyResetToken(ctx context.Context, email, token string) error {
	email = normalizeEmail(email)
	if email == "" || token == "" {
		return validation(MsgMissingFields)
	}
	_, err := s.checkResetToken(ctx, email, token)
	return err
}

// ResetPassword replaces the password and consumes the reset token.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || token == "" || newPassword == "" {
		return validation(MsgMissingFields)
	}

	user, err := s.checkResetToken(ctx, email, token)
	if err != nil {
		return err
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internal("hashing password", err)
	}

	// The store re-checks token and expiry in the same statement, so two
	// concurrent resets cannot both consume one token.
	if err := s.users.ResetPassword(ctx, user.ID, token, hash, s.now()); err != nil {
		if errors.Is(err, store.ErrInvalidResetToken) {
			return validation(MsgInvalidResetToken)
		}
		return internal("resetting password", err)
	}

	s.logger.Info("password reset completed", "user_id", user.ID)
	return nil
}

// UnlinkDevice re-authenticates and releases the account's device binding.
func (s *Service) UnlinkDevice(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return validation(MsgCredentialsNeeded)
	}

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	if err := s.users.ClearDevice(ctx, user.ID); err != nil {
		return internal("clearing device", err)
	}

	s.logger.Info("device unlinked", "user_id", user.ID)
	return nil
}

// EnsureAdmin creates the administrative account when email is unused.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, internal("looking up admin", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, internal("hashing admin password", err)
	}

	err = s.users.CreateUser(ctx, &store.User{
		Name:         adminName,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, store.ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, internal("creating admin", err)
	}

	s.logger.Info("created admin account", "email", email)
	return true, nil
}

// authenticate checks email and password. Unknown emails still pay for a
// bcrypt comparison.
func (s *Service) authenticate(ctx context.Context, email, password string) (*store.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.hasher.CompareDummy(password)
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgBadCredentials}
	}
	if err != nil {
		return nil, internal("looking up user", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgBadCredentials}
	}
	return user, nil
}

func (s *Service) checkResetToken(ctx context.Context, email, token string) (*store.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, validation(MsgInvalidResetToken)
	}
	if err != nil {
		return nil, internal("looking up user", err)
	}

	if user.ResetToken == nil || user.ResetTokenExpiry == nil {
		return nil, validation(MsgInvalidResetToken)
	}
	if !auth.TokensEqual(*user.ResetToken, token) || !user.ResetTokenExpiry.After(s.now()) {
		return nil, validation(MsgInvalidResetToken)
	}
	return user, nil
}

func (s *Service) session(user *store.User) (*Session, error) {
	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, internal("issuing token", err)
	}
	return &Session{User: user, Token: token}, nil
}

func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return validation(MsgPasswordTooShort)
	}
	if len(password) > maxPasswordBytes {
		return validation(MsgPasswordTooLong)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
