// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"writerslibrary/internal/models"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// Client calls the backend over HTTP as a single principal. Obtain one
// from Connector.Actor.
type Client struct {
	conn      *Connector
	principal models.Principal
}

// envelope is the response body of every RPC call.
type envelope struct {
	OK  json.RawMessage `json:"ok"`
	Err *RemoteError    `json:"err"`
}

// call performs POST {base}/rpc/{method} with the positional arguments
// encoded as a JSON array and decodes the "ok" value into out (if non-nil).
func (c *Client) call(ctx context.Context, method string, out any, args ...any) error {
	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("backend %s marshal: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conn.baseURL+"/rpc/"+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("backend %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.principal != "" {
		token, err := c.conn.signer.Sign(c.principal)
		if err != nil {
			return fmt.Errorf("backend %s sign: %w", method, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.conn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: %w: %w", method, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("backend %s read body: %w: %w", method, ErrUnavailable, err)
	}

	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil && resp.StatusCode == http.StatusOK {
			return fmt.Errorf("backend %s unmarshal: %w", method, err)
		}
	}

	if env.Err != nil {
		return fmt.Errorf("backend %s: %w", method, env.Err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("backend %s: %w", method, ErrMethodNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("backend %s: %w", method, ErrUnauthorized)
	case resp.StatusCode >= 500:
		return fmt.Errorf("backend %s (status %d): %w", method, resp.StatusCode, ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("backend %s: unexpected status %d", method, resp.StatusCode)
	}

	if out == nil || len(env.OK) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.OK, out); err != nil {
		return fmt.Errorf("backend %s decode result: %w", method, err)
	}
	return nil
}

func (c *Client) AssignCallerUserRole(ctx context.Context, user models.Principal, role models.UserRole) error {
	return c.call(ctx, "assignCallerUserRole", nil, user, role)
}

func (c *Client) AssociateCategory(ctx context.Context, writingID models.WritingID, categoryID models.CategoryID) error {
	return c.call(ctx, "associateCategory", nil, writingID, categoryID)
}

func (c *Client) CategoryHasLanguages(ctx context.Context, id models.CategoryID, languages []string) (bool, error) {
	var ok bool
	err := c.call(ctx, "categoryHasLanguages", &ok, id, nonNil(languages))
	return ok, err
}

func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) (models.CategoryID, error) {
	var id models.CategoryID
	err := c.call(ctx, "createCategory", &id,
		in.Title, in.ParentCategoryID, nonNil(in.SupportedLanguages), in.FocusBannerURL, in.Status)
	return id, err
}

func (c *Client) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	return c.call(ctx, "deleteCategory", nil, id)
}

func (c *Client) DeleteWriting(ctx context.Context, id models.WritingID) error {
	return c.call(ctx, "deleteWriting", nil, id)
}

func (c *Client) GetActiveChildCategories(ctx context.Context, parent *models.CategoryID) ([]models.Category, error) {
	var cats []models.Category
	err := c.call(ctx, "getActiveChildCategories", &cats, parent)
	return cats, err
}

func (c *Client) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	var p *models.UserProfile
	err := c.call(ctx, "getCallerUserProfile", &p)
	return p, err
}

func (c *Client) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	var role models.UserRole
	err := c.call(ctx, "getCallerUserRole", &role)
	return role, err
}

func (c *Client) GetCategories(ctx context.Context, parent *models.CategoryID) ([]models.Category, error) {
	var cats []models.Category
	err := c.call(ctx, "getCategories", &cats, parent)
	return cats, err
}

func (c *Client) GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error) {
	var cat *models.Category
	if err := c.call(ctx, "getCategory", &cat, id); err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("backend getCategory: %w", ErrNotFound)
	}
	return cat, nil
}

func (c *Client) GetPublishedWritings(ctx context.Context) ([]models.Writing, error) {
	var ws []models.Writing
	err := c.call(ctx, "getPublishedWritings", &ws)
	return ws, err
}

// GetAllWritings lists writings in every state. Not every backend
// supports it; see AllWritingsLister.
func (c *Client) GetAllWritings(ctx context.Context) ([]models.Writing, error) {
	var ws []models.Writing
	err := c.call(ctx, "getAllWritings", &ws)
	return ws, err
}

func (c *Client) GetUserProfile(ctx context.Context, user models.Principal) (*models.UserProfile, error) {
	var p *models.UserProfile
	err := c.call(ctx, "getUserProfile", &p, user)
	return p, err
}

func (c *Client) GetWriting(ctx context.Context, id models.WritingID) (*models.Writing, error) {
	var w *models.Writing
	if err := c.call(ctx, "getWriting", &w, id); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("backend getWriting: %w", ErrNotFound)
	}
	return w, nil
}

func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	var ok bool
	err := c.call(ctx, "isCallerAdmin", &ok)
	return ok, err
}

func (c *Client) MigrateWritings(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.call(ctx, "migrateWritings", &n)
	return n, err
}

func (c *Client) PublishWriting(ctx context.Context, id models.WritingID) error {
	return c.call(ctx, "publishWriting", nil, id)
}

func (c *Client) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	return c.call(ctx, "saveCallerUserProfile", nil, profile)
}

func (c *Client) SubmitWriting(ctx context.Context, in WritingInput) (models.WritingID, error) {
	var id models.WritingID
	err := c.call(ctx, "submitWriting", &id,
		in.Title, nonNil(in.CategoryIDs), in.Content, nonNil(in.ContentWarnings))
	return id, err
}

func (c *Client) UnpublishWriting(ctx context.Context, id models.WritingID) error {
	return c.call(ctx, "unpublishWriting", nil, id)
}

func (c *Client) UpdateCategory(ctx context.Context, id models.CategoryID, in CategoryInput) error {
	return c.call(ctx, "updateCategory", nil,
		id, in.Title, in.ParentCategoryID, nonNil(in.SupportedLanguages), in.FocusBannerURL, in.Status)
}

func (c *Client) UpdateWriting(ctx context.Context, id models.WritingID, in WritingInput) error {
	return c.call(ctx, "updateWriting", nil,
		id, in.Title, in.Content, nonNil(in.CategoryIDs), nonNil(in.ContentWarnings))
}

// nonNil makes nil slices encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var (
	_ Service           = (*Client)(nil)
	_ AllWritingsLister = (*Client)(nil)
)
