package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	collector := NewCollector()

	handler := Middleware("GetTraitValue", collector, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/contracts/0xc0ffee/tokens/1/traits/color", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	m := collector.GetOperationMetrics()
	if m.RequestCounts["GetTraitValue"] != 2 {
		t.Errorf("expected 2 requests, got %d", m.RequestCounts["GetTraitValue"])
	}
	if m.ErrorCounts["GetTraitValue"] != 0 {
		t.Errorf("expected 0 errors, got %d", m.ErrorCounts["GetTraitValue"])
	}
	if m.TotalDurationSeconds["GetTraitValue"] <= 0 {
		t.Error("expected a positive total duration")
	}
}

func TestMiddlewareRecordsErrors(t *testing.T) {
	collector := NewCollector()

	handler := Middleware("SetTrait", collector, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	req := httptest.NewRequest(http.MethodPut, "/v1/contracts/0xc0ffee/tokens/1/traits/color", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	m := collector.GetOperationMetrics()
	if m.ErrorCounts["SetTrait"] != 1 {
		t.Errorf("expected 1 error, got %d", m.ErrorCounts["SetTrait"])
	}
}
