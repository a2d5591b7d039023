package classifier

import (
	"context"
	"io"
	"sync"
)

// Handle owns the process-wide classifier instance. Construction is lazy and
// concurrency-safe: the factory runs at most once per attempt, the built
// classifier is reused on success, and a failed load may be retried on the
// next call rather than poisoning the handle.
type Handle struct {
	mu      sync.Mutex
	factory func() (Classifier, error)
	current Classifier
}

// NewHandle wraps a factory that builds the classifier (e.g. dialing the
// inference service). The factory is not invoked until the first Get.
func NewHandle(factory func() (Classifier, error)) *Handle {
	return &Handle{factory: factory}
}

// Get returns the classifier, loading it on first use. After a load failure
// subsequent calls retry the factory.
func (h *Handle) Get() (Classifier, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return h.current, nil
	}
	c, err := h.factory()
	if err != nil {
		return nil, err
	}
	h.current = c
	return c, nil
}

// Classify resolves the classifier and runs inference, so callers can treat
// the handle itself as a Classifier.
func (h *Handle) Classify(ctx context.Context, image io.Reader) (*Prediction, error) {
	c, err := h.Get()
	if err != nil {
		return nil, err
	}
	return c.Classify(ctx, image)
}
