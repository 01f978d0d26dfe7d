package metrics

import (
	"io"

	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Parse reads metrics in the text exposition format.
func Parse(r io.Reader) (map[string]*io_prometheus_client.MetricFamily, error) {
	var p expfmt.TextParser
	return p.TextToMetricFamilies(r)
}

// Find returns metrics with name key which satisfy all filters.
func Find(
	mfs map[string]*io_prometheus_client.MetricFamily, key string, mfilt ...MetricFilter,
) []*io_prometheus_client.Metric {
	mf, ok := mfs[key]
	if !ok {
		return nil
	}

	found := []*io_prometheus_client.Metric{}
METRIC:
	for _, m := range mf.Metric {
		for _, f := range mfilt {
			if !f(m) {
				continue METRIC
			}
		}
		found = append(found, m)
	}
	return found
}

// MetricFilter is a filter for metrics.
type MetricFilter func(*io_prometheus_client.Metric) bool

// WithLabelAndValue matches a metric having a label with given name and value.
func WithLabelAndValue(name string, value string) MetricFilter {
	return func(m *io_prometheus_client.Metric) bool {
		for _, l := range m.Label {
			if l.GetName() == name && l.GetValue() == value {
				return true
			}
		}
		return false
	}
}
