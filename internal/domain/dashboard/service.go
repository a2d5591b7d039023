package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulmoscan/pulmoscan/internal/domain/medicine"
	"github.com/pulmoscan/pulmoscan/internal/domain/scanreport"
	"github.com/pulmoscan/pulmoscan/internal/platform/classifier"
)

// RecentScanCount is how many of the latest reports the doctor summary
// includes.
const RecentScanCount = 5

// StockSummary is the pharmacist dashboard payload. Low stock here is
// inclusive of the threshold, unlike the alerts feed which is strict.
type StockSummary struct {
	TotalMedicines    int                  `json:"total_medicines"`
	LowStockCount     int                  `json:"low_stock_count"`
	LowStock          []*medicine.Medicine `json:"low_stock"`
	ExpiredCount      int                  `json:"expired_count"`
	Expired           []*medicine.Medicine `json:"expired"`
	ExpiringSoonCount int                  `json:"expiring_soon_count"`
	ExpiringSoon      []*medicine.Medicine `json:"expiring_soon"`
}

// DoctorSummary is the doctor dashboard payload.
type DoctorSummary struct {
	TotalScans     int                      `json:"total_scans"`
	PneumoniaCount int                      `json:"pneumonia_count"`
	NormalCount    int                      `json:"normal_count"`
	RecentScans    []*scanreport.ScanReport `json:"recent_scans"`
}

type Service struct {
	medicines medicine.Repository
	scans     scanreport.Repository
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(medicines medicine.Repository, scans scanreport.Repository, log zerolog.Logger) *Service {
	return &Service{medicines: medicines, scans: scans, log: log, now: time.Now}
}

func (s *Service) StockSummary(ctx context.Context) (*StockSummary, error) {
	total, err := s.medicines.Count(ctx)
	if err != nil {
		return nil, err
	}
	low, err := s.medicines.ListAtOrBelowQuantity(ctx, medicine.LowStockThreshold)
	if err != nil {
		return nil, err
	}

	day := today(s.now())
	expired, err := s.medicines.ListExpiredBefore(ctx, day)
	if err != nil {
		return nil, err
	}
	// Window runs from today through 30 days out, both ends included.
	expiring, err := s.medicines.ListExpiringBetween(ctx, day, day.Add(medicine.ExpiringSoonWindow))
	if err != nil {
		return nil, err
	}

	if low == nil {
		low = []*medicine.Medicine{}
	}
	if expired == nil {
		expired = []*medicine.Medicine{}
	}
	if expiring == nil {
		expiring = []*medicine.Medicine{}
	}
	return &StockSummary{
		TotalMedicines:    total,
		LowStockCount:     len(low),
		LowStock:          low,
		ExpiredCount:      len(expired),
		Expired:           expired,
		ExpiringSoonCount: len(expiring),
		ExpiringSoon:      expiring,
	}, nil
}

func (s *Service) DoctorSummary(ctx context.Context) (*DoctorSummary, error) {
	total, err := s.scans.Count(ctx)
	if err != nil {
		return nil, err
	}
	pneumonia, err := s.scans.CountByDiagnosis(ctx, classifier.LabelPneumonia)
	if err != nil {
		return nil, err
	}
	normal, err := s.scans.CountByDiagnosis(ctx, classifier.LabelNormal)
	if err != nil {
		return nil, err
	}
	recent, err := s.scans.ListRecent(ctx, RecentScanCount)
	if err != nil {
		return nil, err
	}

	if recent == nil {
		recent = []*scanreport.ScanReport{}
	}
	return &DoctorSummary{
		TotalScans:     total,
		PneumoniaCount: pneumonia,
		NormalCount:    normal,
		RecentScans:    recent,
	}, nil
}

func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
