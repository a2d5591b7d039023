package scanreport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulmoscan/pulmoscan/internal/platform/blobstore"
	"github.com/pulmoscan/pulmoscan/internal/platform/classifier"
)

var ErrPatientNameRequired = errors.New("patient_name is required")

type Service struct {
	repo      Repository
	blobs     blobstore.BlobStore
	clf       classifier.Classifier
	threshold float64
	timeout   time.Duration
	log       zerolog.Logger
}

func NewService(repo Repository, blobs blobstore.BlobStore, clf classifier.Classifier,
	threshold float64, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		clf:       clf,
		threshold: threshold,
		timeout:   timeout,
		log:       log,
	}
}

// Submit stores the image, persists the report in its pending state, and
// runs the analysis. Analysis failures are contained: the report lands in
// a terminal failed state and the upload itself still succeeds.
func (s *Service) Submit(ctx context.Context, patientName, fileName, contentType string, image io.Reader, userID *uuid.UUID) (*ScanReport, error) {
	if patientName == "" {
		return nil, ErrPatientNameRequired
	}

	key, err := s.blobs.Save(ctx, fileName, contentType, image)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{
		PatientName: patientName,
		ImageKey:    key,
		Diagnosis:   DiagnosisPending,
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	result := s.analyze(ctx, key)
	if err := s.repo.UpdateDiagnosis(ctx, report.ID, result.Diagnosis, result.Confidence); err != nil {
		return nil, err
	}
	report.Diagnosis = result.Diagnosis
	report.Confidence = &result.Confidence

	s.log.Info().
		Str("report_id", report.ID.String()).
		Str("diagnosis", report.Diagnosis).
		Float64("confidence", result.Confidence).
		Msg("scan report analyzed")
	return report, nil
}

func (s *Service) analyze(ctx context.Context, imageKey string) classifier.Result {
	clfCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rc, err := s.blobs.Open(clfCtx, imageKey)
	if err != nil {
		s.log.Error().Err(err).Str("image_key", imageKey).Msg("analysis failed: cannot open stored image")
		return classifier.Failed()
	}
	defer rc.Close()

	pred, err := s.clf.Classify(clfCtx, rc)
	if err != nil {
		s.log.Error().Err(err).Str("image_key", imageKey).Msg("analysis failed: classifier error")
		return classifier.Failed()
	}
	return classifier.Decide(pred, s.threshold)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ScanReport, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, patientName string, limit, offset int) ([]*ScanReport, int, error) {
	return s.repo.List(ctx, patientName, limit, offset)
}

// OpenImage returns the stored X-ray for a report along with the report
// itself, for content-type selection by the caller.
func (s *Service) OpenImage(ctx context.Context, id uuid.UUID) (*ScanReport, io.ReadCloser, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, report.ImageKey)
	if err != nil {
		return nil, nil, err
	}
	return report, rc, nil
}
