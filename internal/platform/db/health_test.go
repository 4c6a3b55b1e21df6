package db

import (
	"testing"
)

func TestPoolStats_Fields(t *testing.T) {
	stats := &PoolStats{
		TotalConns:      10,
		IdleConns:       5,
		AcquiredConns:   5,
		MaxConns:        20,
		AcquireCount:    100,
		AcquireDuration: "1.5s",
		Healthy:         true,
	}

	if stats.TotalConns != 10 {
		t.Errorf("expected TotalConns 10, got %d", stats.TotalConns)
	}
	if stats.AcquiredConns != 5 {
		t.Errorf("expected AcquiredConns 5, got %d", stats.AcquiredConns)
	}
	if !stats.Healthy {
		t.Error("expected Healthy to be true")
	}
}

func TestPoolStats_UnhealthyState(t *testing.T) {
	stats := &PoolStats{
		MaxConns:        20,
		AcquireDuration: "0s",
	}

	if stats.Healthy {
		t.Error("expected Healthy to be false when TotalConns is 0")
	}
}
