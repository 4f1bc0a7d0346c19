package metrics

import (
	"sync"
	"testing"
)

func TestMemoryMetrics_Counter(t *testing.T) {
	m := NewMemoryMetrics()
	defer m.Close()

	if err := m.IncrementCounter("test_counter", nil); err != nil {
		t.Fatalf("IncrementCounter failed: %v", err)
	}
	if err := m.AddCounter("test_counter", 4, nil); err != nil {
		t.Fatalf("AddCounter failed: %v", err)
	}

	value, err := m.GetCounter("test_counter", nil)
	if err != nil {
		t.Fatalf("GetCounter failed: %v", err)
	}
	if value != 5 {
		t.Errorf("expected counter value 5, got %f", value)
	}

	value, _ = m.GetCounter("missing", nil)
	if value != 0 {
		t.Errorf("expected 0 for missing counter, got %f", value)
	}
}

func TestMemoryMetrics_Labels(t *testing.T) {
	m := NewMemoryMetrics()

	m.IncrementCounter("hits", map[string]string{"a": "1", "b": "2"})
	m.IncrementCounter("hits", map[string]string{"b": "2", "a": "1"})
	m.IncrementCounter("hits", map[string]string{"a": "2"})

	value, _ := m.GetCounter("hits", map[string]string{"a": "1", "b": "2"})
	if value != 2 {
		t.Errorf("labels in different order should share a counter, got %f", value)
	}
	value, _ = m.GetCounter("hits", map[string]string{"a": "2"})
	if value != 1 {
		t.Errorf("expected 1, got %f", value)
	}
}

func TestMemoryMetrics_Gauge(t *testing.T) {
	m := NewMemoryMetrics()

	m.SetGauge("active", 3, nil)
	m.SetGauge("active", 1, nil)

	value, err := m.GetGauge("active", nil)
	if err != nil {
		t.Fatalf("GetGauge failed: %v", err)
	}
	if value != 1 {
		t.Errorf("expected gauge 1, got %f", value)
	}
}

func TestMemoryMetrics_Concurrent(t *testing.T) {
	m := NewMemoryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementCounter("concurrent", map[string]string{"k": "v"})
			}
		}()
	}
	wg.Wait()

	value, _ := m.GetCounter("concurrent", map[string]string{"k": "v"})
	if value != 1600 {
		t.Errorf("expected 1600, got %f", value)
	}
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   string
	}{
		{"plain", nil, "plain"},
		{"m", map[string]string{"x": "1"}, "m{x=1}"},
		{"m", map[string]string{"y": "2", "x": "1"}, "m{x=1,y=2}"},
	}
	for _, tt := range tests {
		if got := buildKey(tt.name, tt.labels); got != tt.want {
			t.Errorf("buildKey(%q, %v) = %q, want %q", tt.name, tt.labels, got, tt.want)
		}
	}
}
