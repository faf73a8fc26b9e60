package metrics

import "github.com/kilianp07/sfsbridge/core/factory"

var recorderRegistry = factory.NewRegistry[Recorder]()

// RegisterRecorder adds a recorder factory identified by name.
func RegisterRecorder(name string, f factory.Factory[Recorder]) error {
	return recorderRegistry.Register(name, f)
}

// NewRecorder builds the recorders listed in cfg. No entries yields a
// NopRecorder, several entries a MultiRecorder.
func NewRecorder(cfg Config) (Recorder, error) {
	if len(cfg.Sinks) == 0 {
		return NopRecorder{}, nil
	}
	if len(cfg.Sinks) == 1 {
		return recorderRegistry.Create(cfg.Sinks[0])
	}
	recs := make([]Recorder, 0, len(cfg.Sinks))
	for _, c := range cfg.Sinks {
		r, err := recorderRegistry.Create(c)
		if err != nil {
			_ = NewMultiRecorder(recs...).Close()
			return nil, err
		}
		recs = append(recs, r)
	}
	return NewMultiRecorder(recs...), nil
}
