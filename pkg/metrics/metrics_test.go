package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCommerceMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCommerceMetrics(reg)
	metrics.Observe("login.authenticate", 200, 250*time.Millisecond)
	metrics.Observe("login.authenticate", 401, 10*time.Millisecond)
	metrics.Observe("cart.get", 0, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "commerce_requests_total", map[string]string{"operation": "login.authenticate", "status": "200"}); err != nil {
		t.Fatalf("fetch calls: %v", err)
	} else if got != 1 {
		t.Fatalf("expected calls=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "commerce_request_failures_total", map[string]string{"operation": "login.authenticate"}); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "commerce_requests_total", map[string]string{"operation": "cart.get", "status": "error"}); err != nil {
		t.Fatalf("fetch transport error: %v", err)
	} else if got != 1 {
		t.Fatalf("expected transport error=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "commerce_request_duration_seconds", map[string]string{"operation": "login.authenticate"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestHTTPMetricsUsesRouteLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("GET", "/api/products/{productId}", 200, 5*time.Millisecond)
	metrics.Observe("GET", "", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"route": "/api/products/{productId}", "status": "200"}); err != nil || got != 1 {
		t.Fatalf("expected one routed request, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"route": "unknown", "status": "404"}); err != nil || got != 1 {
		t.Fatalf("expected unknown route label, got %f (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCommerceMetrics(nil).Observe("x", 200, time.Second)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
	var m *CommerceMetrics
	m.Observe("x", 500, time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for name, value := range want {
		found := false
		for _, label := range pairs {
			if label.GetName() == name && label.GetValue() == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
