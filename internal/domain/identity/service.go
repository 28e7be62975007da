package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/healingspace/healingspace/internal/platform/apperr"
	"github.com/healingspace/healingspace/internal/platform/auth"
	"github.com/healingspace/healingspace/internal/platform/db"
	"github.com/healingspace/healingspace/internal/platform/hipaa"
)

const maxUsernameLength = 64

var (
	ErrUsernameTaken      = apperr.New(apperr.ErrConflict, "Username already exists")
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Invalid credentials")
	ErrUserNotFound       = apperr.NotFound("User not found")
)

// ApprovalRequester opens a pending clinician approval for a new patient.
type ApprovalRequester interface {
	Request(ctx context.Context, patient, clinician string) error
}

type Service struct {
	users       UserRepository
	tokens      *auth.TokenIssuer
	revocations *auth.TokenRevocationStore
	approvals   ApprovalRequester
	tx          db.TxRunner
	audit       hipaa.Auditor
	now         func() time.Time
}

func NewService(users UserRepository, tokens *auth.TokenIssuer, revocations *auth.TokenRevocationStore, tx db.TxRunner) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		tx:          tx,
		audit:       hipaa.NopAuditor{},
		now:         time.Now,
	}
}

func (s *Service) WithApprovals(a ApprovalRequester) *Service {
	s.approvals = a
	return s
}

func (s *Service) WithAuditor(a hipaa.Auditor) *Service {
	s.audit = a
	return s
}

// -- Registration --

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" || req.PIN == "" {
		return nil, apperr.Invalid("Username, password, and PIN required")
	}
	if len(req.Password) > auth.MaxSecretLength || len(req.PIN) > auth.MaxSecretLength {
		return nil, apperr.Invalid("password and PIN must be at most %d bytes", auth.MaxSecretLength)
	}
	if len(req.Username) > maxUsernameLength {
		return nil, apperr.Invalid("username must be at most %d characters", maxUsernameLength)
	}

	role := req.Role
	if role == "" {
		role = auth.RoleUser
	}
	switch role {
	case auth.RoleUser:
	case auth.RoleClinician:
		if strings.TrimSpace(req.ProfessionalID) == "" {
			return nil, apperr.Invalid("professional_id is required for clinicians")
		}
	case auth.RoleDeveloper:
		return nil, apperr.Invalid("developer accounts cannot be self-registered")
	default:
		return nil, apperr.Invalid("invalid role %q", role)
	}

	pwHash, err := auth.HashSecret(req.Password)
	if err != nil {
		return nil, err
	}
	pinHash, err := auth.HashSecret(req.PIN)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:       req.Username,
		PasswordHash:   pwHash,
		PINHash:        pinHash,
		Role:           role,
		FullName:       strings.TrimSpace(req.FullName),
		DOB:            strings.TrimSpace(req.DOB),
		Conditions:     strings.TrimSpace(req.Conditions),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Country:        strings.TrimSpace(req.Country),
		Area:           strings.TrimSpace(req.Area),
		Postcode:       strings.TrimSpace(req.Postcode),
		NHSNumber:      strings.TrimSpace(req.NHSNumber),
		ClinicianID:    strings.TrimSpace(req.ClinicianID),
		ProfessionalID: strings.TrimSpace(req.ProfessionalID),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if u.Role != auth.RoleUser || u.ClinicianID == "" || s.approvals == nil {
			return nil
		}
		// An unknown clinician_id is kept on the profile but opens no request.
		if err := s.approvals.Request(ctx, u.Username, u.ClinicianID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("request approval: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, u.Username, hipaa.ActorAPI, "user_registered", "role="+u.Role)
	return u, nil
}

// -- Login / Logout --

// Login verifies the password, and the PIN when one is supplied. Unknown
// users and mismatches are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password, pin string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Invalid("Username and password required")
	}
	if len(password) > auth.MaxSecretLength || len(pin) > auth.MaxSecretLength {
		return nil, apperr.Invalid("password and PIN must be at most %d bytes", auth.MaxSecretLength)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	rehash, err := auth.CompareSecret(u.PasswordHash, password)
	if err != nil {
		s.audit.Log(ctx, username, hipaa.ActorAPI, "login_failed", "")
		return nil, ErrInvalidCredentials
	}
	if pin != "" {
		if _, err := auth.CompareSecret(u.PINHash, pin); err != nil {
			s.audit.Log(ctx, username, hipaa.ActorAPI, "login_failed", "pin")
			return nil, ErrInvalidCredentials
		}
	}

	if rehash {
		if hash, err := auth.HashSecret(password); err == nil {
			if err := s.users.UpdatePasswordHash(ctx, username, hash); err != nil {
				return nil, fmt.Errorf("rehash password: %w", err)
			}
		}
	}
	if err := s.users.TouchLastLogin(ctx, username, s.now()); err != nil {
		return nil, fmt.Errorf("update last_login: %w", err)
	}

	token, exp, err := s.tokens.Issue(u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, username, hipaa.ActorAPI, "user_login", "role="+u.Role)
	return &Session{Username: u.Username, Role: u.Role, Token: token, ExpiresAt: exp}, nil
}

// Logout revokes the token that authenticated ctx until it would expire.
func (s *Service) Logout(ctx context.Context) error {
	jti, exp := auth.TokenFromContext(ctx)
	if jti == "" {
		return apperr.New(apperr.ErrUnauthorized, "authentication required")
	}
	username := auth.UserIDFromContext(ctx)
	if s.revocations != nil {
		s.revocations.Revoke(jti, username, exp)
	}
	s.audit.Log(ctx, username, hipaa.ActorAPI, "user_logout", "")
	return nil
}

// -- Profile --

func (s *Service) GetUser(ctx context.Context, username string) (*User, error) {
	return s.users.GetByUsername(ctx, username)
}

// Role returns the role of username, or ErrUserNotFound.
func (s *Service) Role(ctx context.Context, username string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *Service) UpdateProfile(ctx context.Context, username string, upd *ProfileUpdate) (*User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	upd.apply(u)
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, username, hipaa.ActorAPI, "profile_updated", "")
	return u, nil
}
