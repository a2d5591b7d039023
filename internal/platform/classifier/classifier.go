// Package classifier wraps the external chest-X-ray classification model.
// The model serves class probabilities over {Normal, Pneumonia}; the decision
// rule that turns probabilities into a diagnosis lives here too.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Class labels produced by the model.
const (
	LabelNormal    = "Normal"
	LabelPneumonia = "Pneumonia"
)

// DiagnosisFailed is the terminal marker written when inference errors out.
const DiagnosisFailed = "Analysis Failed"

var ErrMalformedOutput = errors.New("classifier returned malformed output")

// Prediction holds the class probabilities for one image. Values are in
// [0, 1] and sum to approximately 1.
type Prediction struct {
	Normal    float64 `json:"normal"`
	Pneumonia float64 `json:"pneumonia"`
}

// Classifier produces class probabilities for a chest-X-ray image.
type Classifier interface {
	Classify(ctx context.Context, image io.Reader) (*Prediction, error)
}

// Result is a finished diagnosis decision: label plus confidence as a
// percentage rounded to two decimals.
type Result struct {
	Diagnosis  string
	Confidence float64
}

// Decide applies the threshold rule: the image is labeled Pneumonia only when
// P(Pneumonia) meets the threshold; otherwise it is labeled Normal and the
// reported confidence is Normal's probability, even when Pneumonia was the
// arg-max. This mirrors the tuned behavior of the deployed model.
func Decide(p *Prediction, threshold float64) Result {
	if p.Pneumonia >= threshold {
		return Result{Diagnosis: LabelPneumonia, Confidence: toPercent(p.Pneumonia)}
	}
	return Result{Diagnosis: LabelNormal, Confidence: toPercent(p.Normal)}
}

// Failed is the result persisted when inference could not run. Confidence is
// 0.0, never null.
func Failed() Result {
	return Result{Diagnosis: DiagnosisFailed, Confidence: 0.0}
}

func toPercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}

// ---------------------------------------------------------------------------
// HTTP inference client
// ---------------------------------------------------------------------------

// HTTPClassifier calls a remote inference service that hosts the pretrained
// model. The service accepts the raw image body and responds with class
// probabilities.
type HTTPClassifier struct {
	url        string
	httpClient *http.Client
}

// NewHTTPClassifier builds a client for the inference service at url. The
// timeout bounds the whole inference call; expiry surfaces as an error that
// callers map to the analysis-failed path.
func NewHTTPClassifier(url string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// inferenceResponse is the wire format of the inference service.
type inferenceResponse struct {
	Probabilities map[string]float64 `json:"probabilities"`
	Error         string             `json:"error,omitempty"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, image io.Reader) (*Prediction, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference service returned status %d", resp.StatusCode)
	}

	var out inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("inference service error: %s", out.Error)
	}

	normal, okN := out.Probabilities[LabelNormal]
	pneumonia, okP := out.Probabilities[LabelPneumonia]
	if !okN || !okP {
		return nil, ErrMalformedOutput
	}
	if normal < 0 || normal > 1 || pneumonia < 0 || pneumonia > 1 {
		return nil, ErrMalformedOutput
	}

	return &Prediction{Normal: normal, Pneumonia: pneumonia}, nil
}
