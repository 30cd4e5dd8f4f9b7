package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/taskdesk/todo-service/internal/core/ports"
)

func statsStub() *stubTodoService {
	return &stubTodoService{
		statsFn: func(context.Context, string) (ports.TodoStats, error) {
			return ports.TodoStats{Total: 5, Completed: 2, Upcoming: 1}, nil
		},
	}
}

func TestDashboardHandler_Stats_UserHasNoUserCount(t *testing.T) {
	_, s := openSession(t, alice())
	h := NewDashboardHandler(statsStub(), &stubAdminService{count: 42})

	c, rec := newRequest(http.MethodGet, "/v1/dashboard/stats", "", s)
	if err := h.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["total_todos"] != float64(5) || resp["completed_todos"] != float64(2) || resp["upcoming_todos"] != float64(1) {
		t.Fatalf("unexpected counters: %+v", resp)
	}
	if _, ok := resp["total_users"]; ok {
		t.Fatalf("expected no total_users for a regular user, got %+v", resp)
	}
}

func TestDashboardHandler_Stats_AdminSeesUserCount(t *testing.T) {
	_, s := openSession(t, root())
	h := NewDashboardHandler(statsStub(), &stubAdminService{count: 42})

	c, rec := newRequest(http.MethodGet, "/v1/dashboard/stats", "", s)
	if err := h.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["total_users"] != float64(42) {
		t.Fatalf("expected total_users 42, got %+v", resp)
	}
}
