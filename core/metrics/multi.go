package metrics

// MultiRecorder fans events out to several recorders. Optional interfaces
// are forwarded only to recorders implementing them.
type MultiRecorder struct {
	Recorders []Recorder
}

// NewMultiRecorder creates a MultiRecorder with the provided recorders.
func NewMultiRecorder(recs ...Recorder) *MultiRecorder {
	return &MultiRecorder{Recorders: recs}
}

// RecordConnectionAttempt forwards to all recorders, returning the first error.
// Every recorder is called even after a failure.
func (m *MultiRecorder) RecordConnectionAttempt(ev ConnectionAttempt) error {
	var first error
	for _, r := range m.Recorders {
		if err := r.RecordConnectionAttempt(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiRecorder) RecordDiscovery(ev DiscoveryEvent) error {
	var first error
	for _, r := range m.Recorders {
		if dr, ok := r.(DiscoveryRecorder); ok {
			if err := dr.RecordDiscovery(ev); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (m *MultiRecorder) RecordPublish(ev PublishEvent) error {
	var first error
	for _, r := range m.Recorders {
		if pr, ok := r.(PublishRecorder); ok {
			if err := pr.RecordPublish(ev); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (m *MultiRecorder) RecordHealth(s HealthSample) error {
	var first error
	for _, r := range m.Recorders {
		if hr, ok := r.(HealthRecorder); ok {
			if err := hr.RecordHealth(s); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (m *MultiRecorder) RecordConnectionState(state string, connected bool) error {
	var first error
	for _, r := range m.Recorders {
		if sr, ok := r.(StateRecorder); ok {
			if err := sr.RecordConnectionState(state, connected); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Close closes every recorder implementing io.Closer-like Close() error.
func (m *MultiRecorder) Close() error {
	var first error
	for _, r := range m.Recorders {
		if c, ok := r.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
