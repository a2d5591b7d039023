package scanreport

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosisPending marks a report whose image is stored but whose
// analysis has not finished yet. It is written durably before the
// classifier is called, so a crash mid-analysis leaves a visible
// pending report rather than nothing.
const DiagnosisPending = "Pending Analysis"

// ScanReport is one chest X-ray upload and its analysis outcome.
// Confidence is nil while the report is pending and set on every
// terminal state, including failures (0.0).
type ScanReport struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	ImageKey    string     `db:"image_key" json:"-"`
	Diagnosis   string     `db:"diagnosis" json:"diagnosis"`
	Confidence  *float64   `db:"confidence" json:"confidence"`
	UserID      *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	UploadedAt  time.Time  `db:"uploaded_at" json:"uploaded_at"`
}
