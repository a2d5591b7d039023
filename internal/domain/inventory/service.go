package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidType     = errors.New("transaction_type must be purchase or sale")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrMissingMedicine = errors.New("medicine_id is required")
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// RecordTransaction validates and applies a stock movement. The stock
// check for sales happens inside the repository so that concurrent sales
// against the same batch cannot oversell it.
func (s *Service) RecordTransaction(ctx context.Context, t *Transaction) error {
	if t.MedicineID == uuid.Nil {
		return ErrMissingMedicine
	}
	if t.Type != TypePurchase && t.Type != TypeSale {
		return ErrInvalidType
	}
	if t.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := s.repo.Record(ctx, t); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.log.Warn().
				Str("medicine_id", t.MedicineID.String()).
				Int("quantity", t.Quantity).
				Msg("sale rejected: insufficient stock")
		}
		return err
	}

	s.log.Info().
		Str("transaction_id", t.ID.String()).
		Str("medicine_id", t.MedicineID.String()).
		Str("type", t.Type).
		Int("quantity", t.Quantity).
		Msg("inventory transaction recorded")
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Transaction, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByMedicine(ctx context.Context, medicineID uuid.UUID, limit, offset int) ([]*Transaction, int, error) {
	return s.repo.ListByMedicine(ctx, medicineID, limit, offset)
}
