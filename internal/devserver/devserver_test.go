package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t      *testing.T
	srv    *Server
	ts     *httptest.Server
	client *http.Client
	clock  *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	srv, err := New(Options{Now: clk.Now, AccessTTL: time.Minute, Secret: []byte("test-secret")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	jar, _ := cookiejar.New(nil)
	return &harness{t: t, srv: srv, ts: ts, client: &http.Client{Jar: jar}, clock: clk}
}

func (h *harness) do(method, path string, body any, out any) int {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, h.ts.URL+DefaultBasePath+path, &buf)
	if err != nil {
		h.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			h.t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (h *harness) login() {
	h.t.Helper()
	var resp struct {
		UserID   int    `json:"user_id"`
		Username string `json:"username"`
	}
	if code := h.do(http.MethodPost, "/login/", loginRequest{Email: DemoEmail, Password: DemoPassword}, &resp); code != http.StatusOK {
		h.t.Fatalf("login status = %d", code)
	}
	if resp.Username != "guest" || resp.UserID == 0 {
		h.t.Fatalf("login response = %+v", resp)
	}
}

func TestTasksRequireAuth(t *testing.T) {
	h := newHarness(t)
	if code := h.do(http.MethodGet, "/tasks/", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	code := h.do(http.MethodPost, "/login/", loginRequest{Email: DemoEmail, Password: "nope"}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestContactsCannotSignIn(t *testing.T) {
	h := newHarness(t)
	code := h.do(http.MethodPost, "/login/", loginRequest{Email: seedContacts[0].email, Password: ""}, nil)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", code)
	}
}

func TestListSeededTasks(t *testing.T) {
	h := newHarness(t)
	h.login()

	var tasks []task.Task
	if code := h.do(http.MethodGet, "/tasks/", nil, &tasks); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(tasks) != 5 {
		t.Fatalf("got %d tasks", len(tasks))
	}
	first := tasks[0]
	if len(first.Members) != 2 || first.Members[0].User.FirstName != "Anton" {
		t.Errorf("members not expanded: %+v", first.Members)
	}
	if first.SubtasksProgress != 1 {
		t.Errorf("subtasks_progress = %d", first.SubtasksProgress)
	}
}

func TestAccessExpiresAndRefreshes(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.clock.Advance(2 * time.Minute)
	if code := h.do(http.MethodGet, "/tasks/", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expired access: status = %d, want 401", code)
	}
	if code := h.do(http.MethodPost, "/refresh/", struct{}{}, nil); code != http.StatusOK {
		t.Fatalf("refresh status = %d", code)
	}
	if code := h.do(http.MethodGet, "/tasks/", nil, nil); code != http.StatusOK {
		t.Errorf("after refresh: status = %d", code)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	h := newHarness(t)
	h.login()
	if code := h.do(http.MethodPost, "/logout/", struct{}{}, nil); code != http.StatusOK {
		t.Fatalf("logout status = %d", code)
	}
	if code := h.do(http.MethodPost, "/refresh/", struct{}{}, nil); code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d", code)
	}
	if code := h.do(http.MethodGet, "/tasks/", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("tasks after logout: status = %d", code)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	h := newHarness(t)
	req := registerRequest{Username: "sofia", FirstName: "Sofia", LastName: "Müller", Email: "sofia@example.com", Password: "secret99"}
	var resp map[string]any
	if code := h.do(http.MethodPost, "/register/", req, &resp); code != http.StatusCreated {
		t.Fatalf("register status = %d", code)
	}
	if resp["status"] != "success" {
		t.Errorf("register response = %v", resp)
	}
	if code := h.do(http.MethodPost, "/register/", req, nil); code != http.StatusBadRequest {
		t.Errorf("duplicate register: status = %d", code)
	}
	if code := h.do(http.MethodPost, "/login/", loginRequest{Email: "SOFIA@example.com", Password: "secret99"}, nil); code != http.StatusOK {
		t.Errorf("login status = %d", code)
	}
}

func TestPartialPatchKeepsOtherFields(t *testing.T) {
	h := newHarness(t)
	h.login()

	var before task.Task
	h.do(http.MethodGet, "/tasks/1/", nil, &before)

	var after task.Task
	if code := h.do(http.MethodPatch, "/tasks/1/", map[string]any{"status": "done"}, &after); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if after.Status != task.StatusDone {
		t.Errorf("status = %q", after.Status)
	}
	if after.Title != before.Title || len(after.Members) != len(before.Members) || len(after.Subtasks) != len(before.Subtasks) {
		t.Errorf("patch touched other fields: %+v", after)
	}

	if code := h.do(http.MethodPatch, "/tasks/1/", map[string]any{"status": "archived"}, nil); code != http.StatusBadRequest {
		t.Errorf("invalid status: code = %d", code)
	}
}

func TestCreateTaskWithMemberIDs(t *testing.T) {
	h := newHarness(t)
	h.login()

	body := map[string]any{
		"title":    "Write release notes",
		"category": "technical_task",
		"priority": "low",
		"due_date": "2026-04-01",
		"members":  []int{1, 3},
		"subtasks": []map[string]any{{"title": "Draft", "status": false}},
	}
	var created task.Task
	if code := h.do(http.MethodPost, "/tasks/", body, &created); code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if created.ID == 0 || created.Status != task.StatusTodo || created.CreatedAt == nil {
		t.Errorf("created = %+v", created)
	}
	if len(created.Members) != 2 || created.Members[1].ID != 3 || created.Members[1].User.Email == "" {
		t.Errorf("members = %+v", created.Members)
	}
	if len(created.Subtasks) != 1 || created.Subtasks[0].ID == 0 {
		t.Errorf("subtasks = %+v", created.Subtasks)
	}

	body["members"] = []int{999}
	if code := h.do(http.MethodPost, "/tasks/", body, nil); code != http.StatusBadRequest {
		t.Errorf("unknown member: code = %d", code)
	}
}

func TestSubtaskAndDelete(t *testing.T) {
	h := newHarness(t)
	h.login()

	var tk task.Task
	h.do(http.MethodGet, "/tasks/1/", nil, &tk)
	sub := tk.Subtasks[1]

	var updated task.Subtask
	if code := h.do(http.MethodPatch, "/subtask/"+itoa(sub.ID)+"/", map[string]bool{"status": true}, &updated); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !updated.Status || updated.ID != sub.ID {
		t.Errorf("subtask = %+v", updated)
	}
	h.do(http.MethodGet, "/tasks/1/", nil, &tk)
	if tk.SubtasksProgress != 2 {
		t.Errorf("progress = %d", tk.SubtasksProgress)
	}

	if code := h.do(http.MethodDelete, "/tasks/1/", nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete status = %d", code)
	}
	if code := h.do(http.MethodGet, "/tasks/1/", nil, nil); code != http.StatusNotFound {
		t.Errorf("get deleted: code = %d", code)
	}
	if code := h.do(http.MethodPatch, "/subtask/9999/", map[string]bool{"status": true}, nil); code != http.StatusNotFound {
		t.Errorf("unknown subtask: code = %d", code)
	}
}

func TestCreateContact(t *testing.T) {
	h := newHarness(t)
	h.login()

	body := contactRequest{Username: "ida_1", FirstName: "Ida", LastName: "Berg", Email: "ida@example.com", PhoneNumber: "123"}
	var m task.Member
	if code := h.do(http.MethodPost, "/contacts/", body, &m); code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if m.ID == 0 || m.User.ID == m.ID || m.Color != defaultColor {
		t.Errorf("member = %+v", m)
	}

	var all []task.Member
	h.do(http.MethodGet, "/contacts/", nil, &all)
	if len(all) != len(seedContacts)+2 {
		t.Errorf("contacts = %d", len(all))
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
