package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type queueStateResponse struct {
	ActiveItem *struct {
		ID       string `json:"id"`
		UserName string `json:"userName"`
	} `json:"activeItem"`
	Waiting []struct {
		ID       string `json:"id"`
		UserName string `json:"userName"`
	} `json:"waiting"`
}

func getQueueState(t *testing.T, mux *http.ServeMux) queueStateResponse {
	t.Helper()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/queue/state", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("state failed: status=%d", rr.Code)
	}
	var state queueStateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to parse state: %v", err)
	}
	return state
}

func TestQueue_EnqueuePromoteComplete(t *testing.T) {
	mux := setupTestServer(t)

	rr := postJSON(t, mux, "/api/queue/enqueue", `{"userName":"alice","messageId":"m1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("enqueue failed: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var enq struct {
		Queued        bool   `json:"queued"`
		Reason        string `json:"reason"`
		QueuePosition int    `json:"queuePosition"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &enq); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !enq.Queued || enq.Reason != "first-spin" || enq.QueuePosition != 1 {
		t.Fatalf("unexpected enqueue result: got=%+v", enq)
	}

	// 二重エンキューは拒否
	rr = postJSON(t, mux, "/api/queue/enqueue", `{"userName":"alice"}`)
	if err := json.Unmarshal(rr.Body.Bytes(), &enq); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if enq.Queued || enq.Reason != "already-queued" {
		t.Fatalf("duplicate enqueue mismatch: got=%+v", enq)
	}

	rr = postJSON(t, mux, "/api/queue/next", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("next failed: status=%d", rr.Code)
	}
	var state queueStateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to parse state: %v", err)
	}
	if state.ActiveItem == nil || state.ActiveItem.UserName != "alice" {
		t.Fatalf("promotion mismatch: got=%+v", state.ActiveItem)
	}

	activeID := state.ActiveItem.ID

	// 古いidのcompleteは無視される
	rr = postJSON(t, mux, "/api/queue/complete", `{"id":"stale"}`)
	var comp struct {
		Cleared bool               `json:"cleared"`
		State   queueStateResponse `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &comp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if comp.Cleared || comp.State.ActiveItem == nil {
		t.Fatalf("stale complete should be ignored: got=%+v", comp)
	}

	rr = postJSON(t, mux, "/api/queue/complete", `{"id":"`+activeID+`"}`)
	if err := json.Unmarshal(rr.Body.Bytes(), &comp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !comp.Cleared || comp.State.ActiveItem != nil {
		t.Fatalf("complete should clear the active item: got=%+v", comp)
	}
}

func TestQueue_NextIsIdempotentWhileActive(t *testing.T) {
	mux := setupTestServer(t)

	postJSON(t, mux, "/api/queue/enqueue", `{"userName":"alice"}`)
	postJSON(t, mux, "/api/queue/enqueue", `{"userName":"bob"}`)

	rr := postJSON(t, mux, "/api/queue/next", `{}`)
	var first queueStateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &first); err != nil {
		t.Fatalf("failed to parse state: %v", err)
	}

	rr = postJSON(t, mux, "/api/queue/next", `{}`)
	var second queueStateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &second); err != nil {
		t.Fatalf("failed to parse state: %v", err)
	}

	if first.ActiveItem == nil || second.ActiveItem == nil ||
		first.ActiveItem.ID != second.ActiveItem.ID {
		t.Fatalf("repeated next must not advance: first=%+v second=%+v",
			first.ActiveItem, second.ActiveItem)
	}
	if len(second.Waiting) != 1 || second.Waiting[0].UserName != "bob" {
		t.Fatalf("bob should stay waiting: got=%+v", second.Waiting)
	}
}

func TestQueue_EnqueueRequiresUserName(t *testing.T) {
	mux := setupTestServer(t)

	rr := postJSON(t, mux, "/api/queue/enqueue", `{"userName":"  "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rr.Code, http.StatusBadRequest)
	}

	if state := getQueueState(t, mux); state.ActiveItem != nil || len(state.Waiting) != 0 {
		t.Fatalf("rejected enqueue must not change state: got=%+v", state)
	}
}
