package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/sfsbridge/core/factory"
	coremetrics "github.com/kilianp07/sfsbridge/core/metrics"
)

// init registers built-in recorders.
func init() {
	_ = coremetrics.RegisterRecorder("nop", func(map[string]any) (coremetrics.Recorder, error) {
		return coremetrics.NopRecorder{}, nil
	})

	_ = coremetrics.RegisterRecorder("prometheus", func(map[string]any) (coremetrics.Recorder, error) {
		r, err := NewPromRecorderWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return r, nil
	})

	_ = coremetrics.RegisterRecorder("influx", func(conf map[string]any) (coremetrics.Recorder, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxRecorderWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
