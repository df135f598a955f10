package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name       string
		store      Pinger
		cache      Pinger
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			store:      &mockPinger{},
			cache:      &mockPinger{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{ComponentStore: CheckOK, ComponentCache: CheckOK},
		},
		{
			name:       "store down",
			store:      &mockPinger{err: down},
			cache:      &mockPinger{},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{ComponentStore: CheckError, ComponentCache: CheckOK},
		},
		{
			name:       "cache down",
			store:      &mockPinger{},
			cache:      &mockPinger{err: down},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{ComponentStore: CheckOK, ComponentCache: CheckError},
		},
		{
			name:       "both down",
			store:      &mockPinger{err: down},
			cache:      &mockPinger{err: down},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{ComponentStore: CheckError, ComponentCache: CheckError},
		},
		{
			name:       "no cache pinger",
			store:      &mockPinger{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{ComponentStore: CheckOK},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.store, tt.cache).Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("expected %q, got %q", tt.wantStatus, r.Status)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", r.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if r.Checks[k] != v {
					t.Errorf("expected %s %q, got %q", k, v, r.Checks[k])
				}
			}
		})
	}
}
