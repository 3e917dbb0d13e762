// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"writerslibrary/internal/access"
	"writerslibrary/internal/backend"
	"writerslibrary/internal/imaging"
	"writerslibrary/internal/models"
	"writerslibrary/internal/query"
	"writerslibrary/internal/render"
	"writerslibrary/internal/storage"
)

// Banners stores category banner images. Nil when uploads are disabled.
type Banners interface {
	UploadBanner(ctx context.Context, data []byte) (string, error)
	DeleteBanner(ctx context.Context, rawURL string) error
}

// UserLister lists local accounts for role assignment.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// Admin groups all admin area HTTP handlers and their dependencies.
type Admin struct {
	pages
	flashes Flasher
	users   UserLister
	banners Banners
}

// NewAdmin creates a new Admin handler group. banners may be nil if S3 is
// not configured.
func NewAdmin(renderer *render.Renderer, layer *access.Layer, flashes Flasher, users UserLister, banners Banners) *Admin {
	return &Admin{
		pages:   pages{renderer: renderer, layer: layer},
		flashes: flashes,
		users:   users,
		banners: banners,
	}
}

// categoryForm is the category editor input as submitted.
type categoryForm struct {
	Title     string
	Status    string
	ParentID  string
	Languages string
	BannerURL string
}

// writingForm is the writing editor input as submitted.
type writingForm struct {
	Title       string
	Content     string
	CategoryIDs []models.CategoryID
	Warnings    string
}

// writeFailure turns a failed backend write into an editor message.
func writeFailure(err error) string {
	var remote *backend.RemoteError
	switch {
	case errors.Is(err, access.ErrNotReady):
		return "The library is still connecting. Your changes were not saved; try again in a moment."
	case errors.Is(err, backend.ErrUnauthorized):
		return "You are not allowed to make this change."
	case errors.Is(err, backend.ErrNotFound):
		return "It no longer exists in the library."
	case errors.As(err, &remote) && remote.Code == backend.CodeInvalid && remote.Message != "":
		return "The library rejected the change: " + remote.Message
	}
	return "The library could not save your changes. Please try again."
}

// writeStatus is the response status for a failed backend write.
func writeStatus(err error) int {
	var remote *backend.RemoteError
	switch {
	case errors.Is(err, access.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.As(err, &remote) && remote.Code == backend.CodeInvalid:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// --- Dashboard ---

// Dashboard renders the admin overview.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	c := a.caller(r)
	var (
		cats     query.Result[[]models.Category]
		writings query.Result[[]models.Writing]
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { cats = c.AdminCategoryTree(ctx); return nil })
	g.Go(func() error { writings = c.AdminWritings(ctx); return nil })
	g.Wait()

	if cats.Loading || writings.Loading {
		a.unavailable(w, r)
		return
	}

	var errMsg string
	if cats.Err != nil || writings.Err != nil {
		slog.Error("dashboard reads failed", "categories", cats.Err, "writings", writings.Err)
		errMsg = "Some counts could not be loaded."
	}

	published := 0
	for _, wr := range writings.Data {
		if wr.State == models.WritingStatePublished {
			published++
		}
	}

	a.renderer.Page(w, r, "admin_dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"CategoryCount":  len(cats.Data),
			"WritingCount":   len(writings.Data),
			"PublishedCount": published,
			"Error":          errMsg,
		},
	})
}

// Migrate moves writings with an unknown state back to draft.
func (a *Admin) Migrate(w http.ResponseWriter, r *http.Request) {
	n, err := a.caller(r).MigrateWritings(r.Context())
	if err != nil {
		slog.Error("migrate writings failed", "error", err)
		flash(a.flashes, r, "error", writeFailure(err))
	} else {
		flash(a.flashes, r, "success", fmt.Sprintf("Migrated %d writings.", n))
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// --- Categories ---

// CategoriesList renders every category as an indented tree.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	if a.refetch(w, r, func(ctx context.Context) {
		a.layer.Refetch(ctx, query.KeyAdminCategories)
		a.layer.RefetchPrefix(ctx, query.PrefixAdminCategories)
	}) {
		return
	}

	res := a.caller(r).AdminCategoryTree(r.Context())
	if res.Loading {
		a.unavailable(w, r)
		return
	}

	data := map[string]any{"Categories": res.Data, "RetryURL": retryURL(r)}
	if res.Err != nil {
		slog.Error("admin categories failed", "error", res.Err)
		data["Error"] = "Categories could not be loaded."
	}
	a.renderer.Page(w, r, "admin_categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    data,
	})
}

// CategoryNew renders an empty category form.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	a.categoryFormPage(w, r, http.StatusOK, 0, categoryForm{Status: string(models.StatusActive)}, "")
}

// CategoryCreate creates a category from the submitted form.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	form := readCategoryForm(r)
	in, msg := a.categoryInput(r, &form)
	if msg != "" {
		a.categoryFormPage(w, r, http.StatusUnprocessableEntity, 0, form, msg)
		return
	}

	id, err := a.caller(r).CreateCategory(r.Context(), in)
	if err != nil {
		slog.Error("create category failed", "error", err)
		a.categoryFormPage(w, r, writeStatus(err), 0, form, writeFailure(err))
		return
	}

	slog.Info("category created", "id", id, "title", in.Title)
	flash(a.flashes, r, "success", "Category created.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryEdit renders the form for an existing category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}

	res := a.caller(r).Category(r.Context(), id)
	if res.Loading {
		a.unavailable(w, r)
		return
	}
	if res.Data == nil {
		a.errorPage(w, r, http.StatusNotFound, "Category not found",
			"This category does not exist or could not be loaded.", "/admin/categories")
		return
	}

	cat := res.Data
	form := categoryForm{
		Title:     cat.Title,
		Status:    string(cat.Status),
		Languages: strings.Join(cat.SupportedLanguages, ", "),
		BannerURL: cat.FocusBannerURL,
	}
	if cat.ParentCategoryID != nil {
		form.ParentID = cat.ParentCategoryID.String()
	}
	a.categoryFormPage(w, r, http.StatusOK, id, form, "")
}

// CategoryUpdate saves changes to an existing category.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}

	ctx := r.Context()
	c := a.caller(r)
	var oldBanner string
	if old := c.Category(ctx, id); old.Data != nil {
		oldBanner = old.Data.FocusBannerURL
	}

	form := readCategoryForm(r)
	in, msg := a.categoryInput(r, &form)
	if msg != "" {
		a.categoryFormPage(w, r, http.StatusUnprocessableEntity, id, form, msg)
		return
	}

	if err := c.UpdateCategory(ctx, id, in); err != nil {
		slog.Error("update category failed", "id", id, "error", err)
		a.categoryFormPage(w, r, writeStatus(err), id, form, writeFailure(err))
		return
	}
	if oldBanner != "" && oldBanner != in.FocusBannerURL {
		a.deleteBanner(ctx, oldBanner)
	}

	flash(a.flashes, r, "success", "Category saved.")
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete removes a category.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}

	ctx := r.Context()
	c := a.caller(r)
	var banner string
	if cat := c.Category(ctx, id); cat.Data != nil {
		banner = cat.Data.FocusBannerURL
	}

	if err := c.DeleteCategory(ctx, id); err != nil {
		slog.Error("delete category failed", "id", id, "error", err)
		flash(a.flashes, r, "error", writeFailure(err))
	} else {
		if banner != "" {
			a.deleteBanner(ctx, banner)
		}
		flash(a.flashes, r, "success", "Category deleted.")
	}
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

func readCategoryForm(r *http.Request) categoryForm {
	return categoryForm{
		Title:     strings.TrimSpace(r.FormValue("title")),
		Status:    r.FormValue("status"),
		ParentID:  strings.TrimSpace(r.FormValue("parent_id")),
		Languages: r.FormValue("languages"),
		BannerURL: strings.TrimSpace(r.FormValue("banner_url")),
	}
}

// categoryInput validates the form and stores an uploaded banner. A
// successful upload replaces form.BannerURL so a re-rendered form keeps it.
func (a *Admin) categoryInput(r *http.Request, form *categoryForm) (backend.CategoryInput, string) {
	if msg := validateCategory(*form); msg != "" {
		return backend.CategoryInput{}, msg
	}

	var parent *models.CategoryID
	if form.ParentID != "" {
		pid, err := models.ParseCategoryID(form.ParentID)
		if err != nil {
			return backend.CategoryInput{}, "Parent category is not valid."
		}
		parent = &pid
	}

	url, msg := a.uploadBanner(r)
	if msg != "" {
		return backend.CategoryInput{}, msg
	}
	if url != "" {
		form.BannerURL = url
	}

	return backend.CategoryInput{
		Title:              form.Title,
		ParentCategoryID:   parent,
		SupportedLanguages: models.ParseLanguages(form.Languages),
		FocusBannerURL:     form.BannerURL,
		Status:             models.Status(form.Status),
	}, ""
}

// uploadBanner stores the banner file of a multipart request, if any.
func (a *Admin) uploadBanner(r *http.Request) (string, string) {
	if a.banners == nil || r.MultipartForm == nil {
		return "", ""
	}
	file, _, err := r.FormFile("banner")
	if errors.Is(err, http.ErrMissingFile) {
		return "", ""
	}
	if err != nil {
		return "", "The banner could not be read."
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxBannerSize+1))
	if err != nil {
		return "", "The banner could not be read."
	}
	if len(data) == 0 {
		return "", ""
	}
	if len(data) > storage.MaxBannerSize {
		return "", "The banner is too large (max 5 MB)."
	}

	data, err = imaging.PrepareBanner(data)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		return "", "The banner dimensions are too large."
	case err != nil:
		return "", "The banner must be a JPEG, PNG, WebP or GIF image."
	}

	url, err := a.banners.UploadBanner(r.Context(), data)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		return "", "The banner must be a JPEG, PNG, WebP or GIF image."
	}
	if err != nil {
		slog.Error("banner upload failed", "error", err)
		return "", "The banner could not be uploaded."
	}
	return url, ""
}

func (a *Admin) deleteBanner(ctx context.Context, url string) {
	if a.banners == nil {
		return
	}
	if err := a.banners.DeleteBanner(ctx, url); err != nil {
		slog.Warn("banner delete failed", "url", url, "error", err)
	}
}

// categoryFormPage renders the category editor. id is zero for new
// categories.
func (a *Admin) categoryFormPage(w http.ResponseWriter, r *http.Request, status int, id models.CategoryID, form categoryForm, errMsg string) {
	tree := a.caller(r).AdminCategoryTree(r.Context())
	if tree.Err != nil {
		slog.Warn("parent categories unavailable", "error", tree.Err)
	}
	parents := tree.Data
	if id != 0 {
		parents = withoutSubtree(parents, id)
	}

	title := "New category"
	if id != 0 {
		title = "Edit category"
	}
	a.renderer.PageStatus(w, r, status, "admin_category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data: map[string]any{
			"IsNew":         id == 0,
			"ID":            id,
			"Form":          form,
			"Parents":       parents,
			"UploadEnabled": a.banners != nil,
			"Error":         errMsg,
		},
	})
}

// withoutSubtree drops id and its descendants from a depth-first tree.
func withoutSubtree(tree []models.Category, id models.CategoryID) []models.Category {
	out := make([]models.Category, 0, len(tree))
	skipDepth := -1
	for _, c := range tree {
		if skipDepth >= 0 {
			if c.Depth > skipDepth {
				continue
			}
			skipDepth = -1
		}
		if c.ID == id {
			skipDepth = c.Depth
			continue
		}
		out = append(out, c)
	}
	return out
}

// --- Writings ---

// WritingsList renders every writing with its state and categories.
func (a *Admin) WritingsList(w http.ResponseWriter, r *http.Request) {
	if a.refetch(w, r, func(ctx context.Context) {
		a.layer.Refetch(ctx, query.KeyAdminWritings, query.KeyAdminCategories)
		a.layer.RefetchPrefix(ctx, query.PrefixAdminCategories)
	}) {
		return
	}

	c := a.caller(r)
	var (
		writings query.Result[[]models.Writing]
		cats     query.Result[[]models.Category]
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { writings = c.AdminWritings(ctx); return nil })
	g.Go(func() error { cats = c.AdminCategoryTree(ctx); return nil })
	g.Wait()

	if writings.Loading {
		a.unavailable(w, r)
		return
	}
	if cats.Err != nil {
		slog.Warn("admin category titles failed", "error", cats.Err)
	}

	titles := make(map[models.CategoryID]string, len(cats.Data))
	for _, cat := range cats.Data {
		titles[cat.ID] = cat.Title
	}

	data := map[string]any{
		"Writings":       writings.Data,
		"Categories":     cats.Data,
		"CategoryTitles": titles,
		"RetryURL":       retryURL(r),
	}
	if writings.Err != nil {
		slog.Error("admin writings failed", "error", writings.Err)
		data["Error"] = "Writings could not be loaded."
	}
	a.renderer.Page(w, r, "admin_writings", &render.PageData{
		Title:   "Writings",
		Section: "writings",
		Data:    data,
	})
}

// WritingNew renders an empty writing form.
func (a *Admin) WritingNew(w http.ResponseWriter, r *http.Request) {
	a.writingFormPage(w, r, http.StatusOK, 0, writingForm{}, "", false)
}

// WritingCreate submits a new writing, or renders a preview when asked.
func (a *Admin) WritingCreate(w http.ResponseWriter, r *http.Request) {
	form, msg := readWritingForm(r)
	if r.FormValue("action") == "preview" {
		a.writingFormPage(w, r, http.StatusOK, 0, form, msg, msg == "")
		return
	}
	if msg == "" {
		msg = validateWriting(form)
	}
	if msg != "" {
		a.writingFormPage(w, r, http.StatusUnprocessableEntity, 0, form, msg, false)
		return
	}

	id, err := a.caller(r).CreateWriting(r.Context(), writingInput(form))
	if err != nil {
		slog.Error("create writing failed", "error", err)
		a.writingFormPage(w, r, writeStatus(err), 0, form, writeFailure(err), false)
		return
	}

	slog.Info("writing created", "id", id, "title", form.Title)
	flash(a.flashes, r, "success", "Writing saved.")
	http.Redirect(w, r, "/admin/writings", http.StatusSeeOther)
}

// WritingEdit renders the form for an existing writing.
func (a *Admin) WritingEdit(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWritingID(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}

	res := a.caller(r).Writing(r.Context(), id)
	if res.Loading {
		a.unavailable(w, r)
		return
	}
	if res.Data == nil {
		a.errorPage(w, r, http.StatusNotFound, "Writing not found",
			"This writing does not exist or could not be loaded.", "/admin/writings")
		return
	}

	wr := res.Data
	form := writingForm{
		Title:       wr.Title,
		Content:     wr.Content,
		CategoryIDs: wr.Categories,
		Warnings:    strings.Join(wr.ContentWarnings, ", "),
	}
	a.writingFormPage(w, r, http.StatusOK, id, form, "", false)
}

// WritingUpdate saves changes to an existing writing, or renders a
// preview when asked. On failure the form keeps the submitted input.
func (a *Admin) WritingUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseWritingID(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}

	form, msg := readWritingForm(r)
	if r.FormValue("action") == "preview" {
		a.writingFormPage(w, r, http.StatusOK, id, form, msg, msg == "")
		return
	}
	if msg == "" {
		msg = validateWriting(form)
	}
	if msg != "" {
		a.writingFormPage(w, r, http.StatusUnprocessableEntity, id, form, msg, false)
		return
	}

	if err := a.caller(r).UpdateWriting(r.Context(), id, writingInput(form)); err != nil {
		slog.Error("update writing failed", "id", id, "error", err)
		a.writingFormPage(w, r, writeStatus(err), id, form, writeFailure(err), false)
		return
	}

	flash(a.flashes, r, "success", "Writing saved.")
	http.Redirect(w, r, "/admin/writings", http.StatusSeeOther)
}

// WritingPublish makes a writing public.
func (a *Admin) WritingPublish(w http.ResponseWriter, r *http.Request) {
	a.writingAction(w, r, "publish", "Writing published.", (*access.Caller).PublishWriting)
}

// WritingUnpublish withdraws a writing from the public site.
func (a *Admin) WritingUnpublish(w http.ResponseWriter, r *http.Request) {
	a.writingAction(w, r, "unpublish", "Writing unpublished.", (*access.Caller).UnpublishWriting)
}

// WritingDelete removes a writing.
func (a *Admin) WritingDelete(w http.ResponseWriter, r *http.Request) {
	a.writingAction(w, r, "delete", "Writing deleted.", (*access.Caller).DeleteWriting)
}

// WritingAssociate files a writing under one more category.
func (a *Admin) WritingAssociate(w http.ResponseWriter, r *http.Request) {
	catID, err := models.ParseCategoryID(r.FormValue("category_id"))
	if err != nil {
		flash(a.flashes, r, "error", "Choose a category.")
		http.Redirect(w, r, "/admin/writings", http.StatusSeeOther)
		return
	}
	a.writingAction(w, r, "associate", "Category added.", func(c *access.Caller, ctx context.Context, id models.WritingID) error {
		return c.AssociateCategory(ctx, id, catID)
	})
}

// writingAction runs a single-writing write and returns to the list with
// a notification either way.
func (a *Admin) writingAction(w http.ResponseWriter, r *http.Request, op, done string, fn func(*access.Caller, context.Context, models.WritingID) error) {
	id, err := models.ParseWritingID(chi.URLParam(r, "id"))
	if err != nil {
		a.badID(w, r)
		return
	}

	if err := fn(a.caller(r), r.Context(), id); err != nil {
		slog.Error("writing "+op+" failed", "id", id, "error", err)
		flash(a.flashes, r, "error", writeFailure(err))
	} else {
		flash(a.flashes, r, "success", done)
	}
	http.Redirect(w, r, "/admin/writings", http.StatusSeeOther)
}

// readWritingForm parses the editor fields. The message is non-empty when
// a category id does not parse.
func readWritingForm(r *http.Request) (writingForm, string) {
	form := writingForm{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Content:  r.FormValue("content"),
		Warnings: r.FormValue("warnings"),
	}
	var msg string
	for _, raw := range r.Form["category_ids"] {
		id, err := models.ParseCategoryID(raw)
		if err != nil {
			msg = "A selected category is not valid."
			continue
		}
		form.CategoryIDs = append(form.CategoryIDs, id)
	}
	return form, msg
}

func writingInput(f writingForm) backend.WritingInput {
	return backend.WritingInput{
		Title:           f.Title,
		Content:         f.Content,
		CategoryIDs:     f.CategoryIDs,
		ContentWarnings: models.ParseWarnings(f.Warnings),
	}
}

// writingFormPage renders the writing editor. id is zero for new writings.
func (a *Admin) writingFormPage(w http.ResponseWriter, r *http.Request, status int, id models.WritingID, form writingForm, errMsg string, preview bool) {
	cats := a.caller(r).AdminCategoryTree(r.Context())
	if cats.Err != nil {
		slog.Warn("writing form categories unavailable", "error", cats.Err)
	}

	title := "New writing"
	if id != 0 {
		title = "Edit writing"
	}
	a.renderer.PageStatus(w, r, status, "admin_writing_form", &render.PageData{
		Title:   title,
		Section: "writings",
		Data: map[string]any{
			"IsNew":           id == 0,
			"ID":              id,
			"Form":            form,
			"Categories":      cats.Data,
			"Error":           errMsg,
			"Preview":         preview,
			"PreviewWarnings": models.ParseWarnings(form.Warnings),
		},
	})
}
