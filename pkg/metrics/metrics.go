package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't match the defined labels.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrNegativeCounterValue is returned when attempting to add a negative value to a counter.
var ErrNegativeCounterValue = errors.New("counter cannot be decreased")

// ErrDuplicateMetric is returned when registering a metric with a name that is already registered.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// MetricType represents the type of a metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeHistogram MetricType = "histogram"
)

// DefaultBuckets are the histogram buckets for request durations, in seconds.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

type series struct {
	labels []string
	value  float64 // counter value or histogram sum
	count  uint64
	counts []uint64 // per bucket, not cumulative
}

// family is a named metric with one series per label combination.
type family struct {
	name       string
	help       string
	typ        MetricType
	labelNames []string
	buckets    []float64

	mu     sync.Mutex
	series map[string]*series
}

func newFamily(name, help string, typ MetricType, labelNames []string, buckets []float64) *family {
	return &family{
		name:       name,
		help:       help,
		typ:        typ,
		labelNames: labelNames,
		buckets:    buckets,
		series:     make(map[string]*series),
	}
}

// with returns the series for values. The caller must hold f.mu.
func (f *family) with(values []string) (*series, error) {
	if len(values) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: %s wants %d, got %d", ErrLabelCountMismatch, f.name, len(f.labelNames), len(values))
	}
	key := strings.Join(values, "\xff")
	s, ok := f.series[key]
	if !ok {
		s = &series{labels: append([]string(nil), values...)}
		if f.typ == MetricTypeHistogram {
			s.counts = make([]uint64, len(f.buckets))
		}
		f.series[key] = s
	}
	return s, nil
}

// Counter is a monotonically increasing metric.
type Counter struct{ f *family }

// Inc increments the series for labels by 1.
func (c *Counter) Inc(labels ...string) error {
	return c.Add(1, labels...)
}

// Add adds delta to the series for labels.
func (c *Counter) Add(delta float64, labels ...string) error {
	if delta < 0 {
		return ErrNegativeCounterValue
	}
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	s, err := c.f.with(labels)
	if err != nil {
		return err
	}
	s.value += delta
	return nil
}

// Value returns the current value of the series for labels.
func (c *Counter) Value(labels ...string) float64 {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if s, ok := c.f.series[strings.Join(labels, "\xff")]; ok {
		return s.value
	}
	return 0
}

// Histogram tracks the distribution of observed values.
type Histogram struct{ f *family }

// Observe records value in the series for labels.
func (h *Histogram) Observe(value float64, labels ...string) error {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	s, err := h.f.with(labels)
	if err != nil {
		return err
	}
	s.value += value
	s.count++
	if i := sort.SearchFloat64s(h.f.buckets, value); i < len(h.f.buckets) {
		s.counts[i]++
	}
	return nil
}

// Count returns the number of observations in the series for labels.
func (h *Histogram) Count(labels ...string) uint64 {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	if s, ok := h.f.series[strings.Join(labels, "\xff")]; ok {
		return s.count
	}
	return 0
}

// Registry holds all registered metrics.
type Registry struct {
	mu       sync.RWMutex
	families []*family
	names    map[string]struct{}
}

// NewRegistry creates a new metric registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter creates and registers a new counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	f := newFamily(name, help, MetricTypeCounter, labels, nil)
	r.register(f)
	return &Counter{f: f}
}

// NewHistogram creates and registers a new histogram with the given buckets.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	f := newFamily(name, help, MetricTypeHistogram, labels, b)
	r.register(f)
	return &Histogram{f: f}
}

// register panics on duplicate names, which would produce invalid output.
func (r *Registry) register(f *family) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[f.name]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, f.name))
	}
	r.names[f.name] = struct{}{}
	r.families = append(r.families, f)
}

// Handler returns an http.Handler that serves the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = r.Write(w)
	})
}

// Write writes every metric with at least one series in text format.
func (r *Registry) Write(w io.Writer) error {
	r.mu.RLock()
	families := append([]*family(nil), r.families...)
	r.mu.RUnlock()

	var b strings.Builder
	for _, f := range families {
		f.write(&b)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (f *family) write(b *strings.Builder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.series) == 0 {
		return
	}

	keys := make([]string, 0, len(f.series))
	for k := range f.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "# HELP %s %s\n", f.name, escapeHelp(f.help))
	fmt.Fprintf(b, "# TYPE %s %s\n", f.name, f.typ)

	for _, k := range keys {
		s := f.series[k]
		labels := f.labelPairs(s.labels)
		if f.typ == MetricTypeCounter {
			writeSample(b, f.name, labels, s.value)
			continue
		}
		var cumulative uint64
		for i, le := range f.buckets {
			cumulative += s.counts[i]
			writeSample(b, f.name+"_bucket", append(labels, [2]string{"le", formatFloat(le)}), float64(cumulative))
		}
		writeSample(b, f.name+"_bucket", append(labels, [2]string{"le", "+Inf"}), float64(s.count))
		writeSample(b, f.name+"_sum", labels, s.value)
		writeSample(b, f.name+"_count", labels, float64(s.count))
	}
}

func (f *family) labelPairs(values []string) [][2]string {
	pairs := make([][2]string, len(values), len(values)+1)
	for i, v := range values {
		pairs[i] = [2]string{f.labelNames[i], v}
	}
	return pairs
}

func writeSample(b *strings.Builder, name string, labels [][2]string, v float64) {
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%s=%q", l[0], escapeLabelValue(l[1]))
		}
		b.WriteByte('}')
	}
	b.WriteByte(' ')
	b.WriteString(formatFloat(v))
	b.WriteByte('\n')
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

// escapeLabelValue normalizes newlines; %q handles quotes and backslashes.
func escapeLabelValue(s string) string {
	return strings.ReplaceAll(s, "\r", "")
}
