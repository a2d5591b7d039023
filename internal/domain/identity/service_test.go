package identity

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulmoscan/pulmoscan/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	users    map[uuid.UUID]*User
	profiles map[uuid.UUID]*Profile
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:    make(map[uuid.UUID]*User),
		profiles: make(map[uuid.UUID]*Profile),
	}
}

func (m *mockRepo) CreateUser(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepo) GetUserByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepo) SetStaff(_ context.Context, id uuid.UUID, isStaff bool) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.IsStaff = isStaff
	return nil
}

func (m *mockRepo) UpsertProfile(_ context.Context, p *Profile) error {
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockRepo) GetProfile(_ context.Context, userID uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	if u, ok := m.users[userID]; ok {
		p.Username = u.Username
	}
	return p, nil
}

func (m *mockRepo) ListProfiles(_ context.Context, limit, offset int) ([]*Profile, int, error) {
	var result []*Profile
	for uid, p := range m.profiles {
		if u, ok := m.users[uid]; ok {
			p.Username = u.Username
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	total := len(result)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return result[offset:end], total, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	return string(hash)
}

// -- Tests --

func TestService_RegisterAndVerify(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "drsmith", "smith@clinic.test", "s3cret", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash == "s3cret" {
		t.Error("password must be stored hashed")
	}

	subject, err := svc.VerifyCredentials(ctx, "drsmith", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject.Username != "drsmith" || subject.ID != u.ID {
		t.Error("unexpected token subject")
	}
	if subject.Role != auth.RoleDoctor {
		t.Errorf("registration must provision a default doctor profile, got role %q", subject.Role)
	}
}

func TestService_VerifyCredentials_NoProfile(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// A user row without a profile, as created outside the register path.
	u := &User{Username: "legacy", PasswordHash: mustHash(t, "s3cret")}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subject, err := svc.VerifyCredentials(ctx, "legacy", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject.Role != auth.RoleNone {
		t.Errorf("user without profile must get role %q, got %q", auth.RoleNone, subject.Role)
	}
}

func TestService_VerifyCredentials_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "drsmith", "", "s3cret", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.VerifyCredentials(ctx, "drsmith", "wrong"); !errors.Is(err, auth.ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := svc.VerifyCredentials(ctx, "nobody", "s3cret"); !errors.Is(err, auth.ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials for unknown user, got %v", err)
	}
}

func TestService_VerifyCredentials_RoleFromProfile(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "drsmith", "", "s3cret", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AssignRole(ctx, u.ID, auth.RolePharmacist); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subject, err := svc.VerifyCredentials(ctx, "drsmith", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject.Role != auth.RolePharmacist {
		t.Errorf("expected pharmacist role, got %q", subject.Role)
	}
}

func TestService_AssignRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.Register(ctx, "ph", "", "pw", false)

	if _, err := svc.AssignRole(ctx, u.ID, "janitor"); err != ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.AssignRole(ctx, uuid.New(), auth.RoleDoctor); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	p, err := svc.AssignRole(ctx, u.ID, auth.RolePharmacist)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != auth.RolePharmacist {
		t.Errorf("expected pharmacist, got %q", p.Role)
	}

	// Reassignment replaces the role.
	p, err = svc.AssignRole(ctx, u.ID, auth.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != auth.RoleAdmin {
		t.Errorf("expected admin after reassignment, got %q", p.Role)
	}
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup", "", "pw", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Register(ctx, "dup", "", "pw2", false); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestService_EnsureSeedUser_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.EnsureSeedUser(ctx, "admin", "admin@clinic.test", "admin-pw", auth.RoleAdmin, true); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}

	if len(repo.users) != 1 {
		t.Errorf("expected exactly one user after repeated seeding, got %d", len(repo.users))
	}

	subject, err := svc.VerifyCredentials(ctx, "admin", "admin-pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !subject.IsStaff || subject.Role != auth.RoleAdmin {
		t.Error("seed user must be staff with the admin role")
	}
}

func TestService_EnsureSeedUser_RestoresDriftedAccount(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if err := svc.EnsureSeedUser(ctx, "admin", "admin@clinic.test", "admin-pw", auth.RoleAdmin, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := repo.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Drift the account out from under the seed.
	u.IsStaff = false
	if err := repo.UpsertProfile(ctx, &Profile{UserID: u.ID, Role: auth.RoleDoctor}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.EnsureSeedUser(ctx, "admin", "admin@clinic.test", "admin-pw", auth.RoleAdmin, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subject, err := svc.VerifyCredentials(ctx, "admin", "admin-pw")
	if err != nil {
		t.Fatalf("re-seeding must not change the password: %v", err)
	}
	if subject.Role != auth.RoleAdmin {
		t.Errorf("re-seeding left drifted role %q, want %q", subject.Role, auth.RoleAdmin)
	}
	if !subject.IsStaff {
		t.Error("re-seeding must restore the staff flag")
	}
	if len(repo.users) != 1 {
		t.Errorf("expected exactly one user, got %d", len(repo.users))
	}
}
