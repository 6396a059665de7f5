package session

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
)

func TestSaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yml")
	s := NewStore(path)

	sess, err := s.Load()
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if sess.SignedIn() {
		t.Error("empty session is signed in")
	}
	if _, err := s.RequireUser(); !clierr.Is(err, clierr.NotAuthenticated) {
		t.Errorf("RequireUser: %v", err)
	}

	want := Session{
		User:    &User{ID: 3, Username: "ann"},
		BaseURL: "http://localhost:8000/api",
		Cookies: []Cookie{{Name: "access_token", Value: "abc", Path: "/"}},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != fileMode {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	other := NewStore(path)
	got, err := other.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.User == nil || got.User.Username != "ann" || len(got.Cookies) != 1 {
		t.Errorf("loaded = %+v", got)
	}
	if u, ok := other.CurrentUser(); !ok || u.ID != 3 {
		t.Errorf("CurrentUser = %+v, %v", u, ok)
	}

	if err := other.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := other.CurrentUser(); ok {
		t.Error("user still present after Clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file still exists: %v", err)
	}
	if err := other.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestHTTPCookiesDropsExpired(t *testing.T) {
	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	sess := Session{Cookies: []Cookie{
		{Name: "old", Value: "1", Expires: &past},
		{Name: "new", Value: "2", Expires: &future},
		{Name: "session", Value: "3"},
	}}

	got := sess.HTTPCookies(now)
	if len(got) != 2 || got[0].Name != "new" || got[1].Name != "session" {
		t.Errorf("cookies = %v", got)
	}
}

func TestFromHTTP(t *testing.T) {
	exp := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	got := FromHTTP([]*http.Cookie{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "2", Path: "/api", Expires: exp},
	})
	if len(got) != 2 || got[0].Expires != nil || got[1].Expires == nil || !got[1].Expires.Equal(exp) {
		t.Errorf("cookies = %+v", got)
	}
}
