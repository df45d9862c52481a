package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"taskboard/domain"
	"taskboard/session"
)

func newTestServer(t *testing.T, deduper Deduper) (*echo.Echo, *session.Session) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sess := session.New(domain.SeedBoard(), domain.NewSequenceIDs("t", 1), nil, logger)
	return NewServer(sess, deduper, logger), sess
}

func doRequest(e *echo.Echo, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBoard(t *testing.T, rec *httptest.ResponseRecorder) boardResponse {
	t.Helper()
	var resp boardResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestGetBoardReturnsColumnsInOrder(t *testing.T) {
	e, _ := newTestServer(t, nil)

	rec := doRequest(e, http.MethodGet, "/api/board", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	resp := decodeBoard(t, rec)
	if len(resp.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(resp.Columns))
	}
	wantCounts := []int{2, 1, 1}
	for i, id := range domain.ColumnOrder {
		col := resp.Columns[i]
		if col.ID != id {
			t.Fatalf("column %d: expected %s got %s", i, id, col.ID)
		}
		if col.Count != wantCounts[i] || len(col.Tasks) != wantCounts[i] {
			t.Fatalf("column %s: unexpected count %d", id, col.Count)
		}
	}
	if resp.Columns[1].Title != "In Progress" {
		t.Fatalf("unexpected title: %s", resp.Columns[1].Title)
	}
}

func TestGetBoardFilterQueryBecomesSessionFilter(t *testing.T) {
	e, sess := newTestServer(t, nil)

	rec := doRequest(e, http.MethodGet, "/api/board?filter=DATABASE", "", nil)
	resp := decodeBoard(t, rec)
	if resp.Filter != "DATABASE" || sess.Filter() != "DATABASE" {
		t.Fatalf("filter not applied: resp=%q session=%q", resp.Filter, sess.Filter())
	}
	if resp.Columns[0].Count != 1 || resp.Columns[0].Tasks[0].ID != "2" {
		t.Fatalf("unexpected todo column: %#v", resp.Columns[0])
	}
	if resp.Columns[1].Count != 0 || resp.Columns[1].Tasks == nil {
		t.Fatalf("expected empty, non-null in-progress column: %#v", resp.Columns[1])
	}

	// Without the query the session filter still applies.
	resp = decodeBoard(t, doRequest(e, http.MethodGet, "/api/board", "", nil))
	if resp.Columns[0].Count != 1 {
		t.Fatalf("expected session filter to persist across requests")
	}
}

func TestPutFilter(t *testing.T) {
	e, sess := newTestServer(t, nil)

	rec := doRequest(e, http.MethodPut, "/api/filter", `{"text":"bug"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	resp := decodeBoard(t, rec)
	if resp.Columns[2].Count != 1 || resp.Columns[0].Count != 0 {
		t.Fatalf("unexpected filtered board: %#v", resp.Columns)
	}
	if sess.Filter() != "bug" {
		t.Fatalf("filter not stored")
	}

	rec = doRequest(e, http.MethodPut, "/api/filter", `{"text":"bug","extra":1}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestPostTask(t *testing.T) {
	e, sess := newTestServer(t, nil)

	rec := doRequest(e, http.MethodPost, "/api/columns/todo/tasks", `{"title":"Write tests","description":"Unit tests for reducer","category":"QA","priority":"low"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if task.ID != "t1" || task.Priority != domain.PriorityLow || task.Category != "QA" {
		t.Fatalf("unexpected task: %#v", task)
	}
	todo := sess.Board().Columns[domain.ColumnTodo].Tasks
	if len(todo) != 3 || todo[2].ID != "t1" {
		t.Fatalf("task not appended to todo: %#v", todo)
	}
}

func TestPostTaskErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{name: "unknown column", target: "/api/columns/blocked/tasks", body: `{"title":"x"}`, want: http.StatusNotFound},
		{name: "blank title", target: "/api/columns/todo/tasks", body: `{"title":"  "}`, want: http.StatusBadRequest},
		{name: "bad priority", target: "/api/columns/todo/tasks", body: `{"title":"x","priority":"urgent"}`, want: http.StatusBadRequest},
		{name: "malformed", target: "/api/columns/todo/tasks", body: `{"title":`, want: http.StatusBadRequest},
		{name: "unknown field", target: "/api/columns/todo/tasks", body: `{"title":"x","owner":"me"}`, want: http.StatusBadRequest},
		{name: "oversized", target: "/api/columns/todo/tasks", body: `{"title":"` + strings.Repeat("a", requestMaxSize) + `"}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, sess := newTestServer(t, nil)
			rec := doRequest(e, http.MethodPost, tt.target, tt.body, nil)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d got %d", tt.want, rec.Code)
			}
			if !sess.Board().Equal(domain.SeedBoard()) {
				t.Fatalf("rejected request changed the board")
			}
		})
	}
}

func newTestDeduper(t *testing.T) (*RedisDeduper, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return NewRedisDeduper(client, time.Minute), client
}

func TestPostTaskIdempotencyKey(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	e, sess := newTestServer(t, deduper)
	header := http.Header{headerIdempotencyKey: []string{"create-1"}}

	rec := doRequest(e, http.MethodPost, "/api/columns/done/tasks", `{"title":"Ship"}`, header)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d", rec.Code)
	}
	rec = doRequest(e, http.MethodPost, "/api/columns/done/tasks", `{"title":"Ship"}`, header)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for repeated key got %d", rec.Code)
	}
	if n := len(sess.Board().Columns[domain.ColumnDone].Tasks); n != 2 {
		t.Fatalf("expected exactly one created task, done has %d", n)
	}

	// Requests without a key are never deduplicated.
	for i := 0; i < 2; i++ {
		if rec := doRequest(e, http.MethodPost, "/api/columns/done/tasks", `{"title":"Ship"}`, nil); rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201 without key got %d", rec.Code)
		}
	}
}

func TestPostTaskReleasesKeyOnRejectedDraft(t *testing.T) {
	deduper, _ := newTestDeduper(t)
	e, _ := newTestServer(t, deduper)
	header := http.Header{headerIdempotencyKey: []string{"retry-me"}}

	if rec := doRequest(e, http.MethodPost, "/api/columns/todo/tasks", `{"title":""}`, header); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if rec := doRequest(e, http.MethodPost, "/api/columns/todo/tasks", `{"title":"fixed"}`, header); rec.Code != http.StatusCreated {
		t.Fatalf("expected retry with same key to succeed, got %d", rec.Code)
	}
}

type failingDeduper struct{}

func (failingDeduper) Claim(context.Context, domain.ColumnID, string) (bool, error) {
	return false, errors.New("redis down")
}

func (failingDeduper) Release(context.Context, domain.ColumnID, string) error { return nil }

func TestPostTaskDeduperFailure(t *testing.T) {
	e, sess := newTestServer(t, failingDeduper{})
	header := http.Header{headerIdempotencyKey: []string{"k"}}

	rec := doRequest(e, http.MethodPost, "/api/columns/todo/tasks", `{"title":"x"}`, header)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 got %d", rec.Code)
	}
	if !sess.Board().Equal(domain.SeedBoard()) {
		t.Fatalf("board changed despite failed idempotency check")
	}
}

func decodeChanged(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp changedResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp.Changed
}

func TestMoveTask(t *testing.T) {
	e, sess := newTestServer(t, nil)

	if !decodeChanged(t, doRequest(e, http.MethodPost, "/api/tasks/1/move", `{"from":"todo","to":"done"}`, nil)) {
		t.Fatalf("expected explicit move to apply")
	}
	// From omitted: the owning column is looked up.
	if !decodeChanged(t, doRequest(e, http.MethodPost, "/api/tasks/3/move", `{"to":"todo"}`, nil)) {
		t.Fatalf("expected implicit move to apply")
	}
	if decodeChanged(t, doRequest(e, http.MethodPost, "/api/tasks/2/move", `{"from":"done","to":"todo"}`, nil)) {
		t.Fatalf("expected wrong source column to be a no-op")
	}
	if decodeChanged(t, doRequest(e, http.MethodPost, "/api/tasks/missing/move", `{"to":"todo"}`, nil)) {
		t.Fatalf("expected unknown task to be a no-op")
	}

	b := sess.Board()
	if got := taskIDs(b.Columns[domain.ColumnDone].Tasks); strings.Join(got, ",") != "4,1" {
		t.Fatalf("unexpected done column: %v", got)
	}
	if got := taskIDs(b.Columns[domain.ColumnTodo].Tasks); strings.Join(got, ",") != "2,3" {
		t.Fatalf("unexpected todo column: %v", got)
	}

	if rec := doRequest(e, http.MethodPost, "/api/tasks/1/move", `not json`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	e, sess := newTestServer(t, nil)

	if !decodeChanged(t, doRequest(e, http.MethodDelete, "/api/columns/in-progress/tasks/3", "", nil)) {
		t.Fatalf("expected delete to apply")
	}
	if decodeChanged(t, doRequest(e, http.MethodDelete, "/api/columns/in-progress/tasks/3", "", nil)) {
		t.Fatalf("expected repeated delete to be a no-op")
	}
	if len(sess.Board().Columns[domain.ColumnInProgress].Tasks) != 0 {
		t.Fatalf("task still present")
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	e, _ := newTestServer(t, nil)

	if rec := doRequest(e, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200 got %d", rec.Code)
	}
	doRequest(e, http.MethodGet, "/api/board", "", nil)
	rec := doRequest(e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("expected runtime metrics in output")
	}
}

func TestRequestsEmitObservabilityEvents(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sess := session.New(domain.SeedBoard(), nil, nil, logger)
	e := NewServer(sess, nil, logger)

	doRequest(e, http.MethodPost, "/api/columns/blocked/tasks", `{"title":"x"}`, nil)

	entry := hook.LastEntry()
	if entry == nil || entry.Message != observabilityEvent {
		t.Fatalf("expected observability event, got %#v", entry)
	}
	if entry.Level != log.WarnLevel {
		t.Fatalf("expected warn level for 404, got %v", entry.Level)
	}
	attrs, ok := entry.Data["attributes"].(map[string]any)
	if !ok {
		t.Fatalf("attributes not logged as map: %#v", entry.Data["attributes"])
	}
	if attrs["http.route"] != "/api/columns/:column/tasks" {
		t.Fatalf("unexpected route: %#v", attrs["http.route"])
	}
	if attrs["taskboard.request.error_stage"] != "unknown_column" {
		t.Fatalf("unexpected error stage: %#v", attrs["taskboard.request.error_stage"])
	}
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestPostActionsAppliesBatchInOrder(t *testing.T) {
	e, sess := newTestServer(t, nil)

	body := `[
		{"type":"add","data":{"column":"done","title":"Ship"}},
		{"type":"move","data":{"from":"todo","to":"done","taskId":"1"}},
		{"type":"delete","data":{"column":"todo","taskId":"1"}}
	]`
	rec := doRequest(e, http.MethodPost, "/api/actions", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp actionsResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Changed) != 3 || !resp.Changed[0] || !resp.Changed[1] || resp.Changed[2] {
		t.Fatalf("unexpected changed flags: %v", resp.Changed)
	}
	if got := taskIDs(sess.Board().Columns[domain.ColumnDone].Tasks); strings.Join(got, ",") != "4,t1,1" {
		t.Fatalf("unexpected done column: %v", got)
	}
}

func TestPostActionsRejectsWholeBatch(t *testing.T) {
	e, sess := newTestServer(t, nil)

	body := `[
		{"type":"delete","data":{"column":"todo","taskId":"1"}},
		{"type":"rename","data":{}}
	]`
	rec := doRequest(e, http.MethodPost, "/api/actions", body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if !sess.Board().Equal(domain.SeedBoard()) {
		t.Fatalf("rejected batch changed the board")
	}
}
