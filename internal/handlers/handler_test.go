// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// an in-memory backend, a query cache on an in-process Valkey and a
// renderer over the embedded templates.
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"writerslibrary/internal/access"
	"writerslibrary/internal/backend/backendtest"
	"writerslibrary/internal/cache"
	"writerslibrary/internal/middleware"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
	"writerslibrary/internal/render"
	"writerslibrary/internal/session"
)

// recordingFlashes collects queued notifications.
type recordingFlashes struct {
	mu    sync.Mutex
	added []session.Flash
}

func (f *recordingFlashes) AddFlash(_ context.Context, _ *http.Request, fl session.Flash) error {
	f.mu.Lock()
	f.added = append(f.added, fl)
	f.mu.Unlock()
	return nil
}

func (f *recordingFlashes) PopFlashes(context.Context, *http.Request) ([]session.Flash, error) {
	return nil, nil
}

func (f *recordingFlashes) last() session.Flash {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.added) == 0 {
		return session.Flash{}
	}
	return f.added[len(f.added)-1]
}

// testEnv holds all dependencies for handler tests.
type testEnv struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	fake     *backendtest.Fake
	layer    *access.Layer
	renderer *render.Renderer
	flashes  *recordingFlashes
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	fake := backendtest.New()
	q := query.New(cache.NewQueryStore(rdb), fake.Ready, access.QueryConfig(query.Config{
		Backoff: time.Millisecond,
	}))

	flashes := &recordingFlashes{}
	rn, err := render.New("Writer's Library", flashes)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return &testEnv{
		mr:       mr,
		rdb:      rdb,
		fake:     fake,
		layer:    access.New(fake, q),
		renderer: rn,
		flashes:  flashes,
	}
}

// seedLibrary stores a small library: Poetry with two published pieces and
// a draft, Prose with one piece, an inactive category and a child of Poetry.
func (e *testEnv) seedLibrary() {
	poetry := models.CategoryID(7)
	e.fake.PutCategory(models.Category{ID: 7, Title: "Poetry", SupportedLanguages: []string{"en", "hi"}})
	e.fake.PutCategory(models.Category{ID: 9, Title: "Prose"})
	e.fake.PutCategory(models.Category{ID: 10, Title: "Haiku", ParentCategoryID: &poetry})
	e.fake.PutCategory(models.Category{ID: 11, Title: "Hidden", Status: models.StatusInactive})
	e.fake.PutWriting(models.Writing{ID: 1, Title: "Rain on Tin", Content: "The *rain* falls.", Categories: []models.CategoryID{7}, State: models.WritingStatePublished})
	e.fake.PutWriting(models.Writing{ID: 2, Title: "Sun", Content: "Light.", Categories: []models.CategoryID{7}, State: models.WritingStatePublished})
	e.fake.PutWriting(models.Writing{ID: 3, Title: "Road", Content: "Long road.", Categories: []models.CategoryID{9}, State: models.WritingStatePublished})
	e.fake.PutWriting(models.Writing{ID: 4, Title: "Unfinished", Content: "Draft.", Categories: []models.CategoryID{7}, State: models.WritingStateDraft})
}

// signIn returns a completed session and registers its role on the backend.
func (e *testEnv) signIn(role models.UserRole) *session.Data {
	sess := &session.Data{
		UserID:    uuid.New(),
		Email:     "writer@library.local",
		TwoFADone: true,
	}
	if role != "" {
		e.fake.SetRole(sess.Principal(), role)
	}
	return sess
}

// newRequest builds a request carrying sess. A non-nil form is sent as a
// urlencoded body.
func newRequest(method, target string, form url.Values, sess *session.Data) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sess != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
	}
	return req
}

// serve routes req through a router holding only pattern, so URL
// parameters resolve like in production.
func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body:\n%s", rec.Code, want, rec.Body.String())
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body missing %q", want)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Errorf("body should not contain %q", unwanted)
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	assertStatus(t, rec, status)
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}
