package typeset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestUnicodeRender(t *testing.T) {
	r := NewUnicode()
	cases := map[string]string{
		"3 + 4":            "3 + 4",
		"3 - 4":            "3 - 4",
		`6 \times 7`:       "6 × 7",
		`\frac{6}{6}`:      "6/6",
		`\frac{20}{4}`:     "20/4",
		`\sqrt{81}`:        "√81",
		`\sqrt{a + b}`:     "√(a + b)",
		`\frac {1+2} {3}`:  "1+2/3",
		`  12   \div   3 `: "12 ÷ 3",
	}
	for in, want := range cases {
		got, err := r.Render(in)
		if err != nil {
			t.Fatalf("render %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("render %q: expected %q, got %q", in, want, got)
		}
	}
}

func TestPlainRender(t *testing.T) {
	r := NewPlain()
	got, err := r.Render(`\sqrt{49} + 2 \times 3`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "sqrt(49) + 2 * 3" {
		t.Fatalf("unexpected plain render %q", got)
	}
}

func TestMalformedInput(t *testing.T) {
	r := NewUnicode()
	for _, in := range []string{`\frac{1}`, `{1`, `1}`, `\bogus 1`, `\`, `\sqrt`} {
		_, err := r.Render(in)
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("expected syntax error for %q, got %v", in, err)
		}
		out, err := RenderOrSource(r, in)
		if err == nil || out != in {
			t.Fatalf("expected raw source fallback for %q, got %q (%v)", in, out, err)
		}
	}
}

func TestNewKinds(t *testing.T) {
	for _, kind := range []string{"", KindUnicode, KindPlain, KindRemote} {
		r, err := New(kind, "https://example.com/table.toml", "")
		if err != nil {
			t.Fatalf("new %q: %v", kind, err)
		}
		if kind == KindRemote && r.Loaded() {
			t.Fatalf("remote renderer must start unloaded")
		}
	}
	if _, err := New("katex", "", ""); err == nil {
		t.Fatalf("expected error for unknown renderer")
	}
	if _, err := New(KindRemote, "", ""); err == nil {
		t.Fatalf("expected error for remote renderer without url")
	}
}

const remoteTable = `
frac = "{num} / {den}"
sqrt = "root({arg})"

[symbols]
times = "x"
`

func TestRemoteLoadsAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(remoteTable))
	}))
	t.Cleanup(srv.Close)

	cacheDir := t.TempDir()
	r := NewRemote(srv.URL, cacheDir, srv.Client())
	if r.Loaded() {
		t.Fatalf("expected unloaded renderer")
	}
	if _, err := r.Render("1"); err == nil {
		t.Fatalf("expected render error before load")
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := r.Render(`\frac{6}{3} \times \sqrt{4}`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "6 / 3 x root(4)" {
		t.Fatalf("unexpected render %q", got)
	}
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", hits.Load())
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one cached table, got %d (%v)", len(entries), err)
	}

	again := NewRemote(srv.URL, cacheDir, srv.Client())
	if err := again.Load(context.Background()); err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if !again.FromCache() {
		t.Fatalf("expected table from cache")
	}
	if hits.Load() != 1 {
		t.Fatalf("cached load must not fetch, got %d fetches", hits.Load())
	}
}

func TestEnsureFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	log, hook := test.NewNullLogger()
	r := Ensure(context.Background(), NewRemote(srv.URL, "", srv.Client()), time.Second, log)
	if _, ok := r.(*Static); !ok {
		t.Fatalf("expected plain fallback, got %T", r)
	}
	got, _ := r.Render(`\sqrt{9}`)
	if got != "sqrt(9)" {
		t.Fatalf("unexpected fallback render %q", got)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected warning log, got %+v", entry)
	}
}

func TestEnsureFallsBackOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	}))
	t.Cleanup(srv.Close)

	log, _ := test.NewNullLogger()
	started := time.Now()
	r := Ensure(context.Background(), NewRemote(srv.URL, "", srv.Client()), 50*time.Millisecond, log)
	if _, ok := r.(*Static); !ok {
		t.Fatalf("expected plain fallback, got %T", r)
	}
	if time.Since(started) > 5*time.Second {
		t.Fatalf("timeout was not applied")
	}
}

func TestEnsureSkipsLoadedRenderer(t *testing.T) {
	log, hook := test.NewNullLogger()
	u := NewUnicode()
	if r := Ensure(context.Background(), u, time.Second, log); r != Renderer(u) {
		t.Fatalf("expected the same renderer back")
	}
	if len(hook.Entries) != 0 {
		t.Fatalf("expected no log entries for an already loaded renderer")
	}
}

func TestEnsureLogsSuccessfulLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(remoteTable))
	}))
	t.Cleanup(srv.Close)

	log, hook := test.NewNullLogger()
	remote := NewRemote(srv.URL, "", srv.Client())
	if r := Ensure(context.Background(), remote, time.Second, log); r != Renderer(remote) {
		t.Fatalf("expected remote renderer, got %T", r)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "renderer loaded" {
		t.Fatalf("expected load notice, got %+v", entry)
	}
}

func TestEnsureLogsCacheWriteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(remoteTable))
	}))
	t.Cleanup(srv.Close)

	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	remote := NewRemote(srv.URL, filepath.Join(blocker, "cache"), srv.Client())

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	if r := Ensure(context.Background(), remote, time.Second, log); r != Renderer(remote) {
		t.Fatalf("cache failure must not discard the renderer, got %T", r)
	}
	if remote.CacheError() == nil {
		t.Fatalf("expected cache write error")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.DebugLevel || entry.Message != "renderer table not cached" {
		t.Fatalf("expected debug log for cache failure, got %+v", entry)
	}
}
