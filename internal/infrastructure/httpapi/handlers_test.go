package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"formcfg/internal/infrastructure/cache"
	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/infrastructure/persistence/sqlite/repository"
	"formcfg/internal/infrastructure/persistence/sqlite/uow"
	"formcfg/internal/infrastructure/sheets"
	"formcfg/internal/usecase/formconfig"
)

func newTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "formcfg.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	svc := formconfig.NewService(formconfig.Dependencies{
		Forms:        repository.NewFormRepository(db),
		EventConfigs: repository.NewEventConfigRepository(db),
		Events:       repository.NewEventRepository(db),
		Loads:        repository.NewFormLoadRepository(db),
		UnitOfWork: uow.NewRetryingUnitOfWork(uow.NewUnitOfWork(db), uow.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
		}),
		Mirror: sheets.NoopMirror{},
		Cache:  cache.NewSQLiteCache(db),
	})

	server := httptest.NewServer(NewRouter(svc))
	t.Cleanup(server.Close)
	return server, db
}

func doJSON(t *testing.T, server *httptest.Server, method string, path string, body string, header map[string]string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, server.URL+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestCreateFormReturnsIDAndSheetsSync(t *testing.T) {
	server, db := newTestServer(t)

	status, body := doJSON(t, server, http.MethodPost, "/api/forms", `{
		"title": "Intake",
		"category": "Health",
		"questions": [{"reference": "q1", "content": "Name?", "answer_type": "text", "order": 1}]
	}`, map[string]string{"X-Request-ID": "req-42"})
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["success"] != true || body["id"] != float64(1) || body["sheets_sync"] != false {
		t.Fatalf("body = %v", body)
	}

	var event model.Event
	if err := db.First(&event).Error; err != nil {
		t.Fatalf("load event: %v", err)
	}
	meta := event.EventMetadata.Data()
	if meta["request_id"] != "req-42" || meta["source"] != "http" {
		t.Fatalf("event metadata = %v", meta)
	}
}

func TestGetFormRecordsLoad(t *testing.T) {
	server, db := newTestServer(t)

	if status, body := doJSON(t, server, http.MethodPost, "/api/forms", `{"title":"T","category":"C"}`, nil); status != http.StatusOK {
		t.Fatalf("create status = %d, body = %v", status, body)
	}

	status, body := doJSON(t, server, http.MethodGet, "/api/forms/1", "", map[string]string{"User-Agent": "formcfg-test"})
	if status != http.StatusOK || body["title"] != "T" || body["sheets_sync"] != "failed" {
		t.Fatalf("get status = %d, body = %v", status, body)
	}
	if status, _ := doJSON(t, server, http.MethodGet, "/api/forms/99", "", nil); status != http.StatusNotFound {
		t.Fatalf("get missing status = %d", status)
	}

	var loads []model.FormLoadHistory
	if err := db.Order("load_id asc").Find(&loads).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(loads) != 2 {
		t.Fatalf("form loads = %d, want 2", len(loads))
	}
	if !loads[0].Success || loads[0].UserAgent == nil || *loads[0].UserAgent != "formcfg-test" {
		t.Fatalf("first load = %+v", loads[0])
	}
	if loads[1].Success || loads[1].ErrorMessage == nil {
		t.Fatalf("second load = %+v", loads[1])
	}
}

func TestMutationErrorsMapToStatus(t *testing.T) {
	server, _ := newTestServer(t)

	status, body := doJSON(t, server, http.MethodPost, "/api/forms", `{"title":"","category":"C"}`, nil)
	if status != http.StatusBadRequest || body["kind"] != "validation_failure" {
		t.Fatalf("validation status = %d, body = %v", status, body)
	}
	fields, _ := body["errors"].(map[string]any)
	if fields["title"] != "title is required" {
		t.Fatalf("errors = %v", body["errors"])
	}

	status, body = doJSON(t, server, http.MethodPut, "/api/forms/7", `{"title":"T","category":"C"}`, nil)
	if status != http.StatusNotFound || body["success"] != false || body["kind"] != "referenced_entity_not_found" {
		t.Fatalf("update missing status = %d, body = %v", status, body)
	}

	status, _ = doJSON(t, server, http.MethodDelete, "/api/forms/abc", "", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", status)
	}

	status, _ = doJSON(t, server, http.MethodPost, "/api/events/123/redeliver", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("redeliver missing status = %d", status)
	}

	status, body = doJSON(t, server, http.MethodGet, "/api/nope", "", nil)
	if status != http.StatusNotFound || body["error"] != "Page not found" {
		t.Fatalf("unknown route status = %d, body = %v", status, body)
	}
}

func TestQuestionRoutesAndEventLog(t *testing.T) {
	server, _ := newTestServer(t)

	doJSON(t, server, http.MethodPost, "/api/forms", `{"title":"T","category":"C"}`, nil)
	status, body := doJSON(t, server, http.MethodPost, "/api/forms/1/questions",
		`{"reference":"q1","content":"Pick","answer_type":"list","options":["a","b"]}`, nil)
	if status != http.StatusOK || body["id"] != float64(1) {
		t.Fatalf("add question status = %d, body = %v", status, body)
	}

	status, body = doJSON(t, server, http.MethodPut, "/api/forms/1/questions/1",
		`{"reference":"q1","content":"Pick one","answer_type":"list","options":["a","b","c"]}`, nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("update question status = %d, body = %v", status, body)
	}

	status, body = doJSON(t, server, http.MethodDelete, "/api/forms/1/questions/1", "", nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("delete question status = %d, body = %v", status, body)
	}

	resp, err := server.Client().Get(server.URL + "/api/forms/1/events")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	defer resp.Body.Close()
	var events []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	want := []string{"form_created", "question_added", "question_updated", "question_deleted"}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i, typ := range want {
		if events[i]["type"] != typ || events[i]["processed"] != true {
			t.Fatalf("events[%d] = %v, want %s processed", i, events[i], typ)
		}
	}
}

func TestEventConfigRoutes(t *testing.T) {
	server, _ := newTestServer(t)

	status, body := doJSON(t, server, http.MethodPost, "/api/event-configs",
		`{"event_reference":"EVT","event_type":"meetup","event_dates":{"dates":["2026-01-05"]}}`, nil)
	if status != http.StatusOK || body["id"] != float64(1) {
		t.Fatalf("create status = %d, body = %v", status, body)
	}
	if _, present := body["sheets_sync"]; present {
		t.Fatalf("event configuration create must not report sheets_sync: %v", body)
	}

	status, body = doJSON(t, server, http.MethodGet, "/api/event-configs/1", "", nil)
	if status != http.StatusOK || body["event_type"] != "meetup" {
		t.Fatalf("get status = %d, body = %v", status, body)
	}

	status, body = doJSON(t, server, http.MethodDelete, "/api/event-configs/1", "", nil)
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("delete status = %d, body = %v", status, body)
	}
	status, _ = doJSON(t, server, http.MethodGet, "/api/event-configs/1", "", nil)
	if status != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", status)
	}
}
