package storefront_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"PartsShop/internal/catalog"
	"PartsShop/internal/session"
	"PartsShop/internal/storefront"
	"PartsShop/internal/upload"
)

const (
	testUser     = "admin"
	testPassword = "correct horse"
	metricsToken = "scrape-me"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// switchableStore fails every Save while broken is set.
type switchableStore struct {
	*catalog.MemStore
	broken atomic.Bool
}

func (s *switchableStore) Save(ctx context.Context, products []catalog.Product) error {
	if s.broken.Load() {
		return errors.New("disk full")
	}
	return s.MemStore.Save(ctx, products)
}

type env struct {
	ts        *httptest.Server
	c         *http.Client
	store     *catalog.MemStore
	saves     *switchableStore
	clock     *testClock
	staticDir string
}

type options struct {
	loginLimit int
}

func newEnv(t *testing.T, opts options, seed ...catalog.Product) *env {
	t.Helper()

	hash, err := storefront.HashPassword(testPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admin, err := storefront.NewCredentials(testUser, "", hash)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}

	staticDir := t.TempDir()
	store := catalog.NewMemStore(seed...)
	saves := &switchableStore{MemStore: store}
	clock := &testClock{now: t0}

	s := &storefront.Server{
		Catalog:   catalog.New(saves, zap.NewNop()),
		Sessions:  session.NewCookieCodec("test-secret", false),
		Uploads:   upload.NewStore(filepath.Join(staticDir, "uploads"), "/static/uploads", 1<<20),
		Admin:     admin,
		Render:    storefront.JSONRenderer{},
		Presets:   []string{"Buy Parts", "Wheels & Tires"},
		StaticDir: staticDir,
		Now:       clock.Now,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:              zap.NewNop(),
		Service:          "storefront",
		Registry:         prometheus.NewRegistry(),
		MetricsEnabled:   true,
		MetricsToken:     metricsToken,
		LoginLimitPerMin: opts.loginLimit,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("jar: %v", err)
	}

	return &env{
		ts: ts,
		c: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		store:     store,
		saves:     saves,
		clock:     clock,
		staticDir: staticDir,
	}
}

func (e *env) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := e.c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func (e *env) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return e.do(t, req)
}

func (e *env) postForm(t *testing.T, path string, form url.Values) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func (e *env) postMultipart(t *testing.T, path string, form url.Values, filename string, content []byte) (*http.Response, []byte) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range form {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(t, req)
}

func (e *env) login(t *testing.T) {
	t.Helper()

	resp, raw := e.postForm(t, "/admin", url.Values{"username": {testUser}, "password": {testPassword}})
	expectRedirect(t, resp, raw, "/admin/panel")
}

func (e *env) panel(t *testing.T) storefront.PanelPage {
	t.Helper()

	resp, raw := e.get(t, "/admin/panel")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("panel status=%d body=%s", resp.StatusCode, string(raw))
	}

	var doc struct {
		Page string                `json:"page"`
		Data storefront.PanelPage `json:"data"`
	}
	decode(t, raw, &doc)
	if doc.Page != storefront.PagePanel {
		t.Fatalf("page=%q", doc.Page)
	}
	return doc.Data
}

func (e *env) stored(t *testing.T) []catalog.Product {
	t.Helper()
	products, err := e.store.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return products
}

func expectRedirect(t *testing.T, resp *http.Response, raw []byte, location string) {
	t.Helper()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status=%d want=303 body=%s", resp.StatusCode, string(raw))
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("location=%q want=%q", got, location)
	}
}

func decode(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode: %v body=%s", err, string(raw))
	}
}
