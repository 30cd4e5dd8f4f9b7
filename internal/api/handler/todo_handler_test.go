package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
)

func TestTodoHandler_List_UsesSessionOwnerAndQuery(t *testing.T) {
	_, s := openSession(t, alice())
	stub := &stubTodoService{
		listFn: func(_ context.Context, in ports.ListTodosInput) (*ports.TodoPage, error) {
			if in.OwnerID != "u-alice" {
				t.Fatalf("expected owner from session, got %q", in.OwnerID)
			}
			if in.Filter != "today" || in.SortField != "priority" || in.SortOrder != "desc" || in.Page != 2 || in.Search != "milk" {
				t.Fatalf("unexpected query: %+v", in)
			}
			return &ports.TodoPage{Items: []*domain.Todo{{ID: "t1", Title: "Buy milk"}}, Page: 2, HasMore: true}, nil
		},
	}
	h := NewTodoHandler(stub, time.UTC)

	c, rec := newRequest(http.MethodGet, "/v1/todos?filter=today&sort=priority&order=desc&page=2&search=milk&user_id=u-mallory", "", s)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["has_more"] != true || resp["page"] != float64(2) {
		t.Fatalf("unexpected page payload: %+v", resp)
	}
}

func TestTodoHandler_List_RequiresSession(t *testing.T) {
	h := NewTodoHandler(&stubTodoService{}, time.UTC)
	c, _ := newRequest(http.MethodGet, "/v1/todos", "", nil)

	if err := h.List(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestTodoHandler_Create_ParsesDateInLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	_, s := openSession(t, alice())
	stub := &stubTodoService{
		createFn: func(_ context.Context, ownerID string, in ports.TodoInput) (*domain.Todo, error) {
			want := time.Date(2026, 10, 20, 0, 0, 0, 0, loc)
			if ownerID != "u-alice" || !in.DueDate.Equal(want) || in.Priority != domain.PriorityHigh {
				t.Fatalf("unexpected input: owner=%s %+v", ownerID, in)
			}
			return &domain.Todo{ID: "t1", OwnerID: ownerID, Title: in.Title, DueDate: in.DueDate, Priority: in.Priority}, nil
		},
	}
	h := NewTodoHandler(stub, loc)

	c, rec := newRequest(http.MethodPost, "/v1/todos", `{"title":"Buy milk","due_date":"2026-10-20","priority":"high"}`, s)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestTodoHandler_Create_ValidationError(t *testing.T) {
	_, s := openSession(t, alice())
	h := NewTodoHandler(&stubTodoService{}, time.UTC)

	c, _ := newRequest(http.MethodPost, "/v1/todos", `{"title":"","priority":"urgent"}`, s)
	err := h.Create(c)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != 3 {
		t.Fatalf("expected title, due_date and priority errors, got %v", ve.Fields)
	}
}

func TestTodoHandler_Create_BadDueDate(t *testing.T) {
	_, s := openSession(t, alice())
	h := NewTodoHandler(&stubTodoService{}, time.UTC)

	c, _ := newRequest(http.MethodPost, "/v1/todos", `{"title":"x","due_date":"next tuesday"}`, s)
	if err := h.Create(c); !errors.Is(err, domain.ErrInvalidTodo) {
		t.Fatalf("expected ErrInvalidTodo, got %v", err)
	}
}

func TestTodoHandler_Toggle(t *testing.T) {
	_, s := openSession(t, alice())
	stub := &stubTodoService{
		toggleFn: func(_ context.Context, ownerID, id string, completed bool) (*domain.Todo, error) {
			if ownerID != "u-alice" || id != "t1" || !completed {
				t.Fatalf("unexpected args: %s %s %v", ownerID, id, completed)
			}
			return &domain.Todo{ID: id, Completed: true}, nil
		},
	}
	h := NewTodoHandler(stub, time.UTC)

	c, rec := newRequest(http.MethodPatch, "/v1/todos/t1/completed", `{"completed":true}`, s)
	c.SetParamNames("id")
	c.SetParamValues("t1")
	if err := h.Toggle(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTodoHandler_Toggle_MissingFlag(t *testing.T) {
	_, s := openSession(t, alice())
	h := NewTodoHandler(&stubTodoService{}, time.UTC)

	c, _ := newRequest(http.MethodPatch, "/v1/todos/t1/completed", `{}`, s)
	c.SetParamNames("id")
	c.SetParamValues("t1")

	var ve *ValidationError
	if err := h.Toggle(c); !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}
