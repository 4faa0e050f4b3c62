package metrics

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// WriteText writes every metric of r in the Prometheus text exposition
// format, sorted by name. Metric names have '/', '.' and '-' mapped to '_'
// and are prefixed with namespace when it is not empty. Histograms are
// written as summaries with _count and _sum, plus _min, _max and _mean once
// observed.
func WriteText(w io.Writer, r *Registry, namespace string) error {
	bw := bufio.NewWriter(w)

	r.mu.RLock()
	for _, name := range sortedKeys(r.counters) {
		promName := promName(namespace, name)
		writeHeader(bw, promName, "counter", name)
		fmt.Fprintf(bw, "%s %d\n", promName, r.counters[name].Value())
	}
	for _, name := range sortedKeys(r.gauges) {
		promName := promName(namespace, name)
		writeHeader(bw, promName, "gauge", name)
		fmt.Fprintf(bw, "%s %d\n", promName, r.gauges[name].Value())
	}
	for _, name := range sortedKeys(r.histograms) {
		promName := promName(namespace, name)
		s := r.histograms[name].Snapshot()
		writeHeader(bw, promName, "summary", name)
		fmt.Fprintf(bw, "%s_count %d\n", promName, s.Count)
		fmt.Fprintf(bw, "%s_sum %s\n", promName, formatFloat(s.Sum))
		if s.Count > 0 {
			fmt.Fprintf(bw, "%s_min %s\n", promName, formatFloat(s.Min))
			fmt.Fprintf(bw, "%s_max %s\n", promName, formatFloat(s.Max))
			fmt.Fprintf(bw, "%s_mean %s\n", promName, formatFloat(s.Mean()))
		}
	}
	r.mu.RUnlock()

	return bw.Flush()
}

var promReplacer = strings.NewReplacer("/", "_", ".", "_", "-", "_")

func promName(namespace, name string) string {
	sanitized := promReplacer.Replace(name)
	if namespace != "" {
		return namespace + "_" + sanitized
	}
	return sanitized
}

// formatFloat formats v for exposition, spelling out the special values.
func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return fmt.Sprintf("%g", v)
}

func writeHeader(w io.Writer, name, metricType, help string) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, metricType)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
