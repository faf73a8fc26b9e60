package metrics

import "github.com/kilianp07/sfsbridge/core/factory"

// Config lists the recorders to build, e.g.
//
//	metrics:
//	  prometheus_addr: ":9102"
//	  sinks:
//	    - type: prometheus
//	    - type: sqlite
//	      conf: {path: diag.db}
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when not empty.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}
