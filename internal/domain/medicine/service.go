package medicine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LowStockThreshold is the quantity below which a medicine is flagged in
// the alerts feed.
const LowStockThreshold = 10

// ExpiringSoonWindow is how far ahead the dashboard looks for batches
// approaching expiry.
const ExpiringSoonWindow = 30 * 24 * time.Hour

var (
	ErrNameRequired     = errors.New("medicine name is required")
	ErrBatchRequired    = errors.New("batch number is required")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("price must not be negative")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func validate(m *Medicine) error {
	switch {
	case m.Name == "":
		return ErrNameRequired
	case m.BatchNumber == "":
		return ErrBatchRequired
	case m.Quantity < 0:
		return ErrNegativeQuantity
	case m.Price < 0:
		return ErrNegativePrice
	}
	return nil
}

func (s *Service) Create(ctx context.Context, m *Medicine) error {
	if err := validate(m); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.log.Info().Str("medicine_id", m.ID.String()).Str("name", m.Name).Msg("medicine created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the catalog fields of an existing medicine. Quantity is
// owned by inventory transactions and is never written here.
func (s *Service) Update(ctx context.Context, m *Medicine) error {
	if err := validate(m); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("medicine_id", id.String()).Msg("medicine deleted")
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Alerts returns medicines needing attention: stock strictly below the
// threshold, and batches whose expiry date has already passed.
func (s *Service) Alerts(ctx context.Context) (*Alerts, error) {
	low, err := s.repo.ListBelowQuantity(ctx, LowStockThreshold)
	if err != nil {
		return nil, err
	}
	expired, err := s.repo.ListExpiredBefore(ctx, today(s.now()))
	if err != nil {
		return nil, err
	}
	if low == nil {
		low = []*Medicine{}
	}
	if expired == nil {
		expired = []*Medicine{}
	}
	return &Alerts{LowStock: low, Expired: expired}, nil
}

func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
