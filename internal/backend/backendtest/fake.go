// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package backendtest provides an in-memory stand-in for the library
// backend. It keeps just enough behaviour (visibility of published
// writings, admin-only writes, the category forest) to exercise the
// application end to end, and lets tests inject failures per method.
package backendtest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"writerslibrary/internal/backend"
	"writerslibrary/internal/models"
)

// Fake is an in-memory backend. It implements backend.Connection.
type Fake struct {
	mu         sync.Mutex
	ready      bool
	categories map[models.CategoryID]*models.Category
	writings   map[models.WritingID]*models.Writing
	profiles   map[models.Principal]models.UserProfile
	roles      map[models.Principal]models.UserRole
	nextID     uint64
	calls      map[string]int
	failures   map[string]error
	noListAll  bool
}

// New returns an empty, ready Fake.
func New() *Fake {
	return &Fake{
		ready:      true,
		categories: make(map[models.CategoryID]*models.Category),
		writings:   make(map[models.WritingID]*models.Writing),
		profiles:   make(map[models.Principal]models.UserProfile),
		roles:      make(map[models.Principal]models.UserRole),
		nextID:     100,
		calls:      make(map[string]int),
		failures:   make(map[string]error),
	}
}

var _ backend.Connection = (*Fake)(nil)

// Ready implements backend.Connection.
func (f *Fake) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// SetReady toggles connection readiness.
func (f *Fake) SetReady(ready bool) {
	f.mu.Lock()
	f.ready = ready
	f.mu.Unlock()
}

// Actor implements backend.Connection.
func (f *Fake) Actor(p models.Principal) backend.Service {
	return &actor{f: f, caller: p}
}

// DisableListAll makes getAllWritings answer with method-not-found, like
// older backends.
func (f *Fake) DisableListAll() {
	f.mu.Lock()
	f.noListAll = true
	f.mu.Unlock()
}

// Fail makes every call of method return err until Recover is called.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	f.failures[method] = err
	f.mu.Unlock()
}

// Recover clears an injected failure.
func (f *Fake) Recover(method string) {
	f.mu.Lock()
	delete(f.failures, method)
	f.mu.Unlock()
}

// Calls returns how many times method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// ResetCalls zeroes the call counters.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	f.calls = make(map[string]int)
	f.mu.Unlock()
}

// SetRole assigns a role directly, bypassing the admin check.
func (f *Fake) SetRole(p models.Principal, role models.UserRole) {
	f.mu.Lock()
	f.roles[p] = role
	f.mu.Unlock()
}

// SetProfile stores a profile directly.
func (f *Fake) SetProfile(p models.Principal, profile models.UserProfile) {
	f.mu.Lock()
	f.profiles[p] = profile
	f.mu.Unlock()
}

// PutCategory inserts or replaces a category and links it under its parent.
func (f *Fake) PutCategory(c models.Category) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	cp := cloneCategory(c)
	f.categories[c.ID] = &cp
	if c.ParentCategoryID != nil {
		if parent, ok := f.categories[*c.ParentCategoryID]; ok && !slices.Contains(parent.SubcategoryIDs, c.ID) {
			parent.SubcategoryIDs = append(parent.SubcategoryIDs, c.ID)
		}
	}
	if uint64(c.ID) >= f.nextID {
		f.nextID = uint64(c.ID) + 1
	}
}

// PutWriting inserts or replaces a writing.
func (f *Fake) PutWriting(w models.Writing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := cloneWriting(w)
	f.writings[w.ID] = &cp
	if uint64(w.ID) >= f.nextID {
		f.nextID = uint64(w.ID) + 1
	}
}

// Writing returns a copy of the stored writing.
func (f *Fake) Writing(id models.WritingID) (models.Writing, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.writings[id]
	if !ok {
		return models.Writing{}, false
	}
	return cloneWriting(*w), true
}

// Category returns a copy of the stored category.
func (f *Fake) Category(id models.CategoryID) (models.Category, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.categories[id]
	if !ok {
		return models.Category{}, false
	}
	return cloneCategory(*c), true
}

// enter records a call and returns any injected failure. Callers hold f.mu.
func (f *Fake) enter(method string) error {
	f.calls[method]++
	return f.failures[method]
}

func (f *Fake) isAdmin(p models.Principal) bool {
	return p != "" && f.roles[p] == models.UserRoleAdmin
}

func (f *Fake) allocID() uint64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *Fake) sortedWritings(keep func(*models.Writing) bool) []models.Writing {
	out := []models.Writing{}
	for _, w := range f.writings {
		if keep(w) {
			out = append(out, cloneWriting(*w))
		}
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *Fake) childCategories(parent *models.CategoryID, activeOnly bool) []models.Category {
	out := []models.Category{}
	for _, c := range f.categories {
		if activeOnly && !c.IsActive() {
			continue
		}
		switch {
		case parent == nil && c.ParentCategoryID == nil:
		case parent != nil && c.ParentCategoryID != nil && *parent == *c.ParentCategoryID:
		default:
			continue
		}
		out = append(out, cloneCategory(*c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *Fake) unlinkFromParent(c *models.Category) {
	if c.ParentCategoryID == nil {
		return
	}
	if parent, ok := f.categories[*c.ParentCategoryID]; ok {
		parent.SubcategoryIDs = slices.DeleteFunc(parent.SubcategoryIDs, func(id models.CategoryID) bool { return id == c.ID })
	}
}

func (f *Fake) linkToParent(c *models.Category) {
	if c.ParentCategoryID == nil {
		return
	}
	if parent, ok := f.categories[*c.ParentCategoryID]; ok && !slices.Contains(parent.SubcategoryIDs, c.ID) {
		parent.SubcategoryIDs = append(parent.SubcategoryIDs, c.ID)
	}
}

func cloneWriting(w models.Writing) models.Writing {
	w.Categories = slices.Clone(w.Categories)
	w.ContentWarnings = slices.Clone(w.ContentWarnings)
	if w.Categories == nil {
		w.Categories = []models.CategoryID{}
	}
	if w.ContentWarnings == nil {
		w.ContentWarnings = []string{}
	}
	return w
}

func cloneCategory(c models.Category) models.Category {
	c.SubcategoryIDs = slices.Clone(c.SubcategoryIDs)
	c.SupportedLanguages = slices.Clone(c.SupportedLanguages)
	if c.SubcategoryIDs == nil {
		c.SubcategoryIDs = []models.CategoryID{}
	}
	if c.SupportedLanguages == nil {
		c.SupportedLanguages = []string{}
	}
	return c
}

func notFound(what string) error {
	return &backend.RemoteError{Code: backend.CodeNotFound, Message: what + " not found"}
}

func unauthorized() error {
	return &backend.RemoteError{Code: backend.CodeUnauthorized, Message: "caller is not allowed to perform this action"}
}

// actor is the Fake seen by one caller.
type actor struct {
	f      *Fake
	caller models.Principal
}

var (
	_ backend.Service           = (*actor)(nil)
	_ backend.AllWritingsLister = (*actor)(nil)
)

func (a *actor) AssignCallerUserRole(_ context.Context, user models.Principal, role models.UserRole) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("assignCallerUserRole"); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	if !role.Valid() {
		return &backend.RemoteError{Code: backend.CodeInvalid, Message: "unknown role"}
	}
	f.roles[user] = role
	return nil
}

func (a *actor) AssociateCategory(_ context.Context, writingID models.WritingID, categoryID models.CategoryID) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("associateCategory"); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	w, ok := f.writings[writingID]
	if !ok {
		return notFound("writing")
	}
	if _, ok := f.categories[categoryID]; !ok {
		return notFound("category")
	}
	if !slices.Contains(w.Categories, categoryID) {
		w.Categories = append(w.Categories, categoryID)
	}
	return nil
}

func (a *actor) CategoryHasLanguages(_ context.Context, id models.CategoryID, languages []string) (bool, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("categoryHasLanguages"); err != nil {
		return false, err
	}
	c, ok := f.categories[id]
	if !ok {
		return false, notFound("category")
	}
	for _, l := range languages {
		if !slices.Contains(c.SupportedLanguages, l) {
			return false, nil
		}
	}
	return true, nil
}

func (a *actor) CreateCategory(_ context.Context, in backend.CategoryInput) (models.CategoryID, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("createCategory"); err != nil {
		return 0, err
	}
	if !f.isAdmin(a.caller) {
		return 0, unauthorized()
	}
	if in.ParentCategoryID != nil {
		if _, ok := f.categories[*in.ParentCategoryID]; !ok {
			return 0, notFound("parent category")
		}
	}
	c := cloneCategory(models.Category{
		ID:                 models.CategoryID(f.allocID()),
		Status:             in.Status,
		Title:              in.Title,
		ParentCategoryID:   in.ParentCategoryID,
		SupportedLanguages: in.SupportedLanguages,
		FocusBannerURL:     in.FocusBannerURL,
	})
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	f.categories[c.ID] = &c
	f.linkToParent(&c)
	return c.ID, nil
}

func (a *actor) DeleteCategory(_ context.Context, id models.CategoryID) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("deleteCategory"); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	c, ok := f.categories[id]
	if !ok {
		return notFound("category")
	}
	f.unlinkFromParent(c)
	for _, child := range f.categories {
		if child.ParentCategoryID != nil && *child.ParentCategoryID == id {
			child.ParentCategoryID = nil
		}
	}
	for _, w := range f.writings {
		w.Categories = slices.DeleteFunc(w.Categories, func(cid models.CategoryID) bool { return cid == id })
	}
	delete(f.categories, id)
	return nil
}

func (a *actor) DeleteWriting(_ context.Context, id models.WritingID) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("deleteWriting"); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	if _, ok := f.writings[id]; !ok {
		return notFound("writing")
	}
	delete(f.writings, id)
	return nil
}

func (a *actor) GetActiveChildCategories(_ context.Context, parent *models.CategoryID) ([]models.Category, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getActiveChildCategories"); err != nil {
		return nil, err
	}
	return f.childCategories(parent, true), nil
}

func (a *actor) GetCallerUserProfile(_ context.Context) (*models.UserProfile, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getCallerUserProfile"); err != nil {
		return nil, err
	}
	if a.caller == "" {
		return nil, unauthorized()
	}
	p, ok := f.profiles[a.caller]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (a *actor) GetCallerUserRole(_ context.Context) (models.UserRole, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getCallerUserRole"); err != nil {
		return "", err
	}
	if a.caller == "" {
		return models.UserRoleGuest, nil
	}
	if role, ok := f.roles[a.caller]; ok {
		return role, nil
	}
	return models.UserRoleUser, nil
}

func (a *actor) GetCategories(_ context.Context, parent *models.CategoryID) ([]models.Category, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getCategories"); err != nil {
		return nil, err
	}
	return f.childCategories(parent, false), nil
}

func (a *actor) GetCategory(_ context.Context, id models.CategoryID) (*models.Category, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getCategory"); err != nil {
		return nil, err
	}
	c, ok := f.categories[id]
	if !ok {
		return nil, notFound("category")
	}
	cp := cloneCategory(*c)
	return &cp, nil
}

func (a *actor) GetPublishedWritings(_ context.Context) ([]models.Writing, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getPublishedWritings"); err != nil {
		return nil, err
	}
	return f.sortedWritings(func(w *models.Writing) bool { return w.IsPublished() }), nil
}

func (a *actor) GetAllWritings(_ context.Context) ([]models.Writing, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getAllWritings"); err != nil {
		return nil, err
	}
	if f.noListAll {
		return nil, &backend.RemoteError{Code: backend.CodeMethodNotFound, Message: "getAllWritings"}
	}
	if !f.isAdmin(a.caller) {
		return nil, unauthorized()
	}
	return f.sortedWritings(func(*models.Writing) bool { return true }), nil
}

func (a *actor) GetUserProfile(_ context.Context, user models.Principal) (*models.UserProfile, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getUserProfile"); err != nil {
		return nil, err
	}
	p, ok := f.profiles[user]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (a *actor) GetWriting(_ context.Context, id models.WritingID) (*models.Writing, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("getWriting"); err != nil {
		return nil, err
	}
	w, ok := f.writings[id]
	if !ok || (!w.IsPublished() && !f.isAdmin(a.caller)) {
		return nil, notFound("writing")
	}
	cp := cloneWriting(*w)
	return &cp, nil
}

func (a *actor) IsCallerAdmin(_ context.Context) (bool, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("isCallerAdmin"); err != nil {
		return false, err
	}
	return f.isAdmin(a.caller), nil
}

// MigrateWritings moves writings with an unknown state to draft and
// reports how many changed.
func (a *actor) MigrateWritings(_ context.Context) (uint64, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("migrateWritings"); err != nil {
		return 0, err
	}
	if !f.isAdmin(a.caller) {
		return 0, unauthorized()
	}
	var n uint64
	for _, w := range f.writings {
		if !w.State.Valid() {
			w.State = models.WritingStateDraft
			n++
		}
	}
	return n, nil
}

func (a *actor) setState(method string, id models.WritingID, state models.WritingState) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(method); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	w, ok := f.writings[id]
	if !ok {
		return notFound("writing")
	}
	w.State = state
	return nil
}

func (a *actor) PublishWriting(_ context.Context, id models.WritingID) error {
	return a.setState("publishWriting", id, models.WritingStatePublished)
}

func (a *actor) UnpublishWriting(_ context.Context, id models.WritingID) error {
	return a.setState("unpublishWriting", id, models.WritingStateDraft)
}

func (a *actor) SaveCallerUserProfile(_ context.Context, profile models.UserProfile) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("saveCallerUserProfile"); err != nil {
		return err
	}
	if a.caller == "" {
		return unauthorized()
	}
	f.profiles[a.caller] = profile
	return nil
}

// SubmitWriting stores a new writing: drafts for admins, pending
// submissions for everyone else.
func (a *actor) SubmitWriting(_ context.Context, in backend.WritingInput) (models.WritingID, error) {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("submitWriting"); err != nil {
		return 0, err
	}
	if a.caller == "" {
		return 0, unauthorized()
	}
	state := models.WritingStatePending
	if f.isAdmin(a.caller) {
		state = models.WritingStateDraft
	}
	author := a.caller
	w := cloneWriting(models.Writing{
		ID:              models.WritingID(f.allocID()),
		Categories:      in.CategoryIDs,
		Title:           in.Title,
		Content:         in.Content,
		ContentWarnings: in.ContentWarnings,
		Submissions:     1,
		Author:          &author,
		State:           state,
	})
	f.writings[w.ID] = &w
	return w.ID, nil
}

func (a *actor) UpdateCategory(_ context.Context, id models.CategoryID, in backend.CategoryInput) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("updateCategory"); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	c, ok := f.categories[id]
	if !ok {
		return notFound("category")
	}
	if in.ParentCategoryID != nil {
		if *in.ParentCategoryID == id {
			return &backend.RemoteError{Code: backend.CodeInvalid, Message: "category cannot be its own parent"}
		}
		if _, ok := f.categories[*in.ParentCategoryID]; !ok {
			return notFound("parent category")
		}
	}
	f.unlinkFromParent(c)
	c.Title = in.Title
	c.ParentCategoryID = in.ParentCategoryID
	c.SupportedLanguages = slices.Clone(in.SupportedLanguages)
	c.FocusBannerURL = in.FocusBannerURL
	if in.Status != "" {
		c.Status = in.Status
	}
	f.linkToParent(c)
	return nil
}

func (a *actor) UpdateWriting(_ context.Context, id models.WritingID, in backend.WritingInput) error {
	f := a.f
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("updateWriting"); err != nil {
		return err
	}
	if !f.isAdmin(a.caller) {
		return unauthorized()
	}
	w, ok := f.writings[id]
	if !ok {
		return notFound("writing")
	}
	w.Title = in.Title
	w.Content = in.Content
	w.Categories = slices.Clone(in.CategoryIDs)
	w.ContentWarnings = slices.Clone(in.ContentWarnings)
	w.Submissions++
	return nil
}
