package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileName(t *testing.T) {
	cases := []struct {
		url, explicit, want string
	}{
		{"https://cdn.example.com/files/report.pdf?sig=abc", "", "report.pdf"},
		{"https://cdn.example.com/files/report.pdf", "Q3 report.pdf", "Q3 report.pdf"},
		{"https://cdn.example.com/files/", "", "download"},
		{"https://cdn.example.com/files/?x=1", "", "download"},
		{"https://cdn.example.com/..", "", "download"},
		{"https://cdn.example.com/a.txt", "../../etc/passwd", "passwd"},
	}
	for _, tc := range cases {
		if got := FileName(tc.url, tc.explicit); got != tc.want {
			t.Fatalf("FileName(%q, %q) = %q; want %q", tc.url, tc.explicit, got, tc.want)
		}
	}
}

func TestDownload_SavesAndRemovesTemp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	tmp := t.TempDir()
	c := New(dir)
	c.TempDir = tmp
	c.Open = func(string) error { t.Fatalf("fallback must not run"); return nil }

	res, err := c.Download(context.Background(), srv.URL+"/notes.txt?v=2", "")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if res.Path != filepath.Join(dir, "notes.txt") || res.Bytes != 11 || res.Size == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	b, err := os.ReadFile(res.Path)
	if err != nil || string(b) != "hello world" {
		t.Fatalf("saved content: %q %v", b, err)
	}
	if left, _ := os.ReadDir(tmp); len(left) != 0 {
		t.Fatalf("temporary file not removed: %v", left)
	}

	again, err := c.Download(context.Background(), srv.URL+"/notes.txt", "")
	if err != nil || again.Path != filepath.Join(dir, "notes (1).txt") {
		t.Fatalf("expected a unique second path; got %+v %v", again, err)
	}
}

func TestDownload_FallsBackToOpenOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	var opened string
	c := New(t.TempDir())
	c.Open = func(u string) error { opened = u; return nil }

	url := srv.URL + "/missing.bin"
	res, err := c.Download(context.Background(), url, "")
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if !res.FellBack || opened != url {
		t.Fatalf("expected fallback open of %q; got %+v opened=%q", url, res, opened)
	}
}

func TestDownload_FallsBackToOpenWhenSaveFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	notDir := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(notDir, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tmp := t.TempDir()
	var opened string
	c := New(notDir)
	c.TempDir = tmp
	c.Open = func(u string) error { opened = u; return nil }

	url := srv.URL + "/report.pdf"
	res, err := c.Download(context.Background(), url, "")
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if !res.FellBack || opened != url || res.Path != "" {
		t.Fatalf("expected fallback open of %q; got %+v opened=%q", url, res, opened)
	}
	if left, _ := os.ReadDir(tmp); len(left) != 0 {
		t.Fatalf("temporary file not removed: %v", left)
	}
}
