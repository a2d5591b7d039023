package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulmoscan/pulmoscan/internal/platform/auth"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidRole      = errors.New("role must be admin, doctor or pharmacist")
)

var validRoles = map[string]bool{
	auth.RoleAdmin:      true,
	auth.RoleDoctor:     true,
	auth.RolePharmacist: true,
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Register(ctx context.Context, username, email, password string, isStaff bool) (*User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsStaff:      isStaff,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	// Every account starts with a doctor profile; AssignRole replaces it.
	if err := s.repo.UpsertProfile(ctx, &Profile{UserID: u.ID, Role: auth.RoleDoctor}); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", u.ID.String()).Str("username", username).Msg("user registered")
	return u, nil
}

// VerifyCredentials checks a username/password pair and returns the token
// subject for it. The subject's role comes from the profile, or N/A when
// the user has none.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*auth.TokenSubject, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, auth.ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, auth.ErrBadCredentials
	}

	role := auth.RoleNone
	if p, err := s.repo.GetProfile(ctx, u.ID); err == nil {
		role = p.Role
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	return &auth.TokenSubject{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     role,
		IsStaff:  u.IsStaff,
	}, nil
}

func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, role string) (*Profile, error) {
	if !validRoles[role] {
		return nil, ErrInvalidRole
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	p := &Profile{UserID: userID, Role: role}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID.String()).Str("role", role).Msg("role assigned")
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) ListProfiles(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	return s.repo.ListProfiles(ctx, limit, offset)
}

// EnsureSeedUser provisions a seed account. A free username gets a fresh
// user; an existing one has its role and staff flag brought back in line,
// leaving the stored password alone. Used by the seed-users command, safe
// to run repeatedly.
func (s *Service) EnsureSeedUser(ctx context.Context, username, email, password, role string, isStaff bool) error {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		if u, err = s.Register(ctx, username, email, password, isStaff); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if u.IsStaff != isStaff {
		if err := s.repo.SetStaff(ctx, u.ID, isStaff); err != nil {
			return err
		}
		s.log.Info().Str("username", username).Bool("is_staff", isStaff).Msg("seed user staff flag restored")
	}
	if role == "" {
		return nil
	}
	if p, err := s.repo.GetProfile(ctx, u.ID); err == nil && p.Role == role {
		return nil
	} else if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return err
	}
	_, err = s.AssignRole(ctx, u.ID, role)
	return err
}
