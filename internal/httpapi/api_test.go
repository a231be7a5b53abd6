package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"taskhub/internal/ai"
	"taskhub/internal/repository"
	"taskhub/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSuggester struct {
	category string
	subtask  *ai.SubtaskSuggestion
	calls    int
}

func (f *fakeSuggester) SuggestCategory(ctx context.Context, title, description string, candidates []string) string {
	f.calls++
	return f.category
}

func (f *fakeSuggester) SuggestNextSubtask(ctx context.Context, taskTitle string, existingTitles []string) *ai.SubtaskSuggestion {
	f.calls++
	return f.subtask
}

type testAPI struct {
	handler   http.Handler
	suggester *fakeSuggester
	db        *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "api-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	suggester := &fakeSuggester{}

	server := New(
		service.NewAuthService(userRepo, "test-secret", time.Hour),
		service.NewCategoryService(categoryRepo),
		service.NewTaskService(taskRepo, categoryRepo, suggester),
		service.NewSubtaskService(subtaskRepo, taskRepo, categoryRepo, suggester),
	)
	return &testAPI{handler: server.Router(), suggester: suggester, db: db}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

// signup registers a user and returns its token and id.
func (a *testAPI) signup(t *testing.T, username string) (string, uint) {
	t.Helper()
	email := username + "@example.com"
	rec := a.do(t, http.MethodPost, "/api/register", "", gin.H{
		"username": username, "email": email, "password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", username, rec.Code, rec.Body.String())
	}

	rec = a.do(t, http.MethodPost, "/api/token", "", gin.H{"email": email, "password": "password123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("token %s: %d %s", username, rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	return body["token"].(string), uint(body["user_id"].(float64))
}

func (a *testAPI) createTask(t *testing.T, token, title string) uint {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/tasks", token, gin.H{"title": title})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", rec.Code, rec.Body.String())
	}
	return uint(decode(t, rec)["id"].(float64))
}

func TestCreateTaskAssignsAuthenticatedCaller(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.signup(t, "alice")

	// A client-supplied owner must be ignored.
	rec := api.do(t, http.MethodPost, "/api/tasks", token, gin.H{
		"title": "Buy milk", "user": 9999, "ai_classification": "sneaky",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decode(t, rec)
	if uint(body["user"].(float64)) != userID {
		t.Fatalf("expected owner %d, got %v", userID, body["user"])
	}
	if body["completed"].(bool) {
		t.Fatal("new task must start incomplete")
	}
	if body["ai_classification"] != nil {
		t.Fatalf("ai_classification must not be client-settable, got %v", body["ai_classification"])
	}
}

func TestTasksInvisibleAcrossUsers(t *testing.T) {
	api := newTestAPI(t)
	aliceToken, _ := api.signup(t, "alice")
	bobToken, _ := api.signup(t, "bob")

	taskID := api.createTask(t, aliceToken, "Alice's secret")

	rec := api.do(t, http.MethodGet, "/api/tasks", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	if tasks := decodeList(t, rec); len(tasks) != 0 {
		t.Fatalf("expected empty list for bob, got %d tasks", len(tasks))
	}

	rec = api.do(t, http.MethodGet, "/api/tasks/"+itoa(taskID), bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign task, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, "/api/tasks/"+itoa(taskID), bobToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting foreign task, got %d", rec.Code)
	}
}

func TestTaskListNewestFirst(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup(t, "alice")

	api.createTask(t, token, "first")
	api.createTask(t, token, "second")

	rec := api.do(t, http.MethodGet, "/api/tasks", token, nil)
	tasks := decodeList(t, rec)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0]["id"].(float64) < tasks[1]["id"].(float64) {
		t.Fatalf("expected newest first, got order %v, %v", tasks[0]["id"], tasks[1]["id"])
	}
}

func TestCreateSubtaskForeignTaskFails(t *testing.T) {
	api := newTestAPI(t)
	aliceToken, _ := api.signup(t, "alice")
	bobToken, _ := api.signup(t, "bob")

	taskID := api.createTask(t, aliceToken, "Alice's task")

	rec := api.do(t, http.MethodPost, "/api/subtasks", bobToken, gin.H{
		"task": taskID, "title": "hijack",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["task"] != "task not found or does not belong to user" {
		t.Fatalf("unexpected error body: %v", body)
	}

	rec = api.do(t, http.MethodGet, "/api/subtasks", aliceToken, nil)
	if subtasks := decodeList(t, rec); len(subtasks) != 0 {
		t.Fatalf("expected nothing persisted, got %d subtasks", len(subtasks))
	}
}

func TestSubtaskLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup(t, "alice")
	taskID := api.createTask(t, token, "Parent")

	rec := api.do(t, http.MethodPost, "/api/subtasks", token, gin.H{
		"task": taskID, "title": "Step one", "due_date": "2026-04-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create subtask: %d %s", rec.Code, rec.Body.String())
	}
	created := decode(t, rec)
	if created["due_date"] != "2026-04-01" {
		t.Fatalf("unexpected due_date %v", created["due_date"])
	}
	subID := itoa(uint(created["id"].(float64)))

	// PUT is a full update: both task and title are required.
	rec = api.do(t, http.MethodPut, "/api/subtasks/"+subID, token, gin.H{"title": "Step one"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for PUT without task, got %d", rec.Code)
	}
	if decode(t, rec)["task"] != "task is required" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
	rec = api.do(t, http.MethodPut, "/api/subtasks/"+subID, token, gin.H{"task": taskID, "title": "Step one"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put subtask: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPatch, "/api/subtasks/"+subID, token, gin.H{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch subtask: %d %s", rec.Code, rec.Body.String())
	}
	if !decode(t, rec)["completed"].(bool) {
		t.Fatal("expected subtask completed")
	}

	// Deleting the parent task removes the subtask with it.
	rec = api.do(t, http.MethodDelete, "/api/tasks/"+itoa(taskID), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete task: %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/subtasks/"+subID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected cascaded subtask gone, got %d", rec.Code)
	}
}

func TestCategorizeWithoutCategories(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup(t, "alice")
	taskID := api.createTask(t, token, "Uncategorizable")

	rec := api.do(t, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/categorize", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["error"] != "no categories created" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if api.suggester.calls != 0 {
		t.Fatalf("expected no AI call, got %d", api.suggester.calls)
	}
}

func TestCategorizeMatched(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup(t, "alice")

	rec := api.do(t, http.MethodPost, "/api/categories", token, gin.H{"name": "Work"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: %d", rec.Code)
	}
	taskID := api.createTask(t, token, "Prepare slides")
	api.suggester.category = "Work"

	rec = api.do(t, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/categorize", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categorize: %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["category"] != "Work" || body["matched"] != true {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/tasks/"+itoa(taskID), token, nil)
	task := decode(t, rec)
	if task["category_name"] != "Work" {
		t.Fatalf("expected persisted category, got %v", task["category_name"])
	}
	if task["ai_classification"] != "Work" {
		t.Fatalf("expected persisted classification, got %v", task["ai_classification"])
	}
}

func TestCategorizeUnmatchedReportsSuggestion(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup(t, "alice")

	rec := api.do(t, http.MethodPost, "/api/categories", token, gin.H{"name": "Work"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: %d", rec.Code)
	}
	taskID := api.createTask(t, token, "Water plants")
	api.suggester.category = "Nonexistent"

	rec = api.do(t, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/categorize", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categorize: %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["suggested_category"] != "Nonexistent" || body["matched"] != false {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/tasks/"+itoa(taskID), token, nil)
	task := decode(t, rec)
	if task["category"] != nil || task["ai_classification"] != nil {
		t.Fatalf("unmatched suggestion must not persist: %s", rec.Body.String())
	}
}

func TestSuggestSubtaskEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup(t, "alice")
	taskID := api.createTask(t, token, "Write blog post")

	api.suggester.subtask = &ai.SubtaskSuggestion{Title: "Draft outline", Description: "Sketch sections."}
	rec := api.do(t, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/suggest_subtask", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("suggest: %d %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["title"] != "Draft outline" || uint(body["task"].(float64)) != taskID {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	api.suggester.subtask = nil
	rec = api.do(t, http.MethodPost, "/api/tasks/"+itoa(taskID)+"/suggest_subtask", token, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on no suggestion, got %d", rec.Code)
	}
	if decode(t, rec)["error"] != "no suggestion available" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCategoriesAreGlobal(t *testing.T) {
	api := newTestAPI(t)
	aliceToken, _ := api.signup(t, "alice")
	bobToken, _ := api.signup(t, "bob")

	rec := api.do(t, http.MethodPost, "/api/categories", aliceToken, gin.H{"name": "Shared"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: %d", rec.Code)
	}
	id := itoa(uint(decode(t, rec)["id"].(float64)))

	rec = api.do(t, http.MethodPut, "/api/categories/"+id, bobToken, gin.H{"name": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected bob to update shared category, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/categories", aliceToken, nil)
	categories := decodeList(t, rec)
	if len(categories) != 1 || categories[0]["name"] != "Renamed" {
		t.Fatalf("unexpected categories: %s", rec.Body.String())
	}
}

func TestTokenEndpointErrors(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "alice")

	rec := api.do(t, http.MethodPost, "/api/token", "", gin.H{"email": "ghost@example.com", "password": "x"})
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "email not found" {
		t.Fatalf("unexpected unknown-email response: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/api/token", "", gin.H{"email": "alice@example.com", "password": "wrong"})
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "incorrect password" {
		t.Fatalf("unexpected wrong-password response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/tasks", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/tasks", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.signup(t, "alice")

	rec := api.do(t, http.MethodGet, "/api/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	body := decode(t, rec)
	if uint(body["id"].(float64)) != userID || body["username"] != "alice" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	profile, ok := body["profile"].(map[string]interface{})
	if !ok || profile["role"] != "user" {
		t.Fatalf("expected nested profile, got %s", rec.Body.String())
	}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
