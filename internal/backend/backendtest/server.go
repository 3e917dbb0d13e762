// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"writerslibrary/internal/backend"
	"writerslibrary/internal/models"
)

// rpcFunc decodes positional arguments and invokes one operation.
type rpcFunc func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error)

// NewHandler serves conn over the backend wire protocol: POST
// /rpc/{method} with a JSON array of arguments, answered with
// {"ok": value} or {"err": {"code", "message"}}. GET /health reports 200
// while conn is ready. Caller identity is read from a Bearer token
// checked by signer; requests without one act anonymously.
func NewHandler(conn backend.Connection, signer *backend.Signer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/rpc/{method}", func(w http.ResponseWriter, r *http.Request) {
		fn, ok := methods[chi.URLParam(r, "method")]
		if !ok {
			writeEnvelope(w, http.StatusNotFound, nil, &backend.RemoteError{Code: backend.CodeMethodNotFound, Message: chi.URLParam(r, "method")})
			return
		}

		var caller models.Principal
		if h := r.Header.Get("Authorization"); h != "" {
			p, err := signer.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeEnvelope(w, http.StatusUnauthorized, nil, &backend.RemoteError{Code: backend.CodeUnauthorized, Message: "invalid token"})
				return
			}
			caller = p
		}

		var args []json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			writeEnvelope(w, http.StatusBadRequest, nil, &backend.RemoteError{Code: backend.CodeInvalid, Message: "arguments must be a JSON array"})
			return
		}

		result, err := fn(r.Context(), conn.Actor(caller), args)
		if err != nil {
			var remote *backend.RemoteError
			if !errors.As(err, &remote) {
				remote = &backend.RemoteError{Code: backend.CodeTrap, Message: err.Error()}
			}
			status := http.StatusOK
			if remote.Code == backend.CodeTrap {
				status = http.StatusInternalServerError
			}
			writeEnvelope(w, status, nil, remote)
			return
		}
		writeEnvelope(w, http.StatusOK, result, nil)
	})
	return r
}

func writeEnvelope(w http.ResponseWriter, status int, ok any, rerr *backend.RemoteError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{}
	if rerr != nil {
		body["err"] = rerr
	} else {
		body["ok"] = ok
	}
	_ = json.NewEncoder(w).Encode(body)
}

// arg decodes the i-th positional argument.
func arg[T any](args []json.RawMessage, i int) (T, error) {
	var v T
	if i >= len(args) {
		return v, &backend.RemoteError{Code: backend.CodeInvalid, Message: fmt.Sprintf("missing argument %d", i)}
	}
	if err := json.Unmarshal(args[i], &v); err != nil {
		return v, &backend.RemoteError{Code: backend.CodeInvalid, Message: fmt.Sprintf("argument %d: %v", i, err)}
	}
	return v, nil
}

func categoryInput(args []json.RawMessage, from int) (backend.CategoryInput, error) {
	var in backend.CategoryInput
	var err error
	if in.Title, err = arg[string](args, from); err != nil {
		return in, err
	}
	if in.ParentCategoryID, err = arg[*models.CategoryID](args, from+1); err != nil {
		return in, err
	}
	if in.SupportedLanguages, err = arg[[]string](args, from+2); err != nil {
		return in, err
	}
	if in.FocusBannerURL, err = arg[string](args, from+3); err != nil {
		return in, err
	}
	if in.Status, err = arg[models.Status](args, from+4); err != nil {
		return in, err
	}
	return in, nil
}

var methods = map[string]rpcFunc{
	"assignCallerUserRole": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		user, err := arg[models.Principal](args, 0)
		if err != nil {
			return nil, err
		}
		role, err := arg[models.UserRole](args, 1)
		if err != nil {
			return nil, err
		}
		return nil, svc.AssignCallerUserRole(ctx, user, role)
	},
	"associateCategory": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		wid, err := arg[models.WritingID](args, 0)
		if err != nil {
			return nil, err
		}
		cid, err := arg[models.CategoryID](args, 1)
		if err != nil {
			return nil, err
		}
		return nil, svc.AssociateCategory(ctx, wid, cid)
	},
	"categoryHasLanguages": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.CategoryID](args, 0)
		if err != nil {
			return nil, err
		}
		langs, err := arg[[]string](args, 1)
		if err != nil {
			return nil, err
		}
		return svc.CategoryHasLanguages(ctx, id, langs)
	},
	"createCategory": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		in, err := categoryInput(args, 0)
		if err != nil {
			return nil, err
		}
		return svc.CreateCategory(ctx, in)
	},
	"deleteCategory": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.CategoryID](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, svc.DeleteCategory(ctx, id)
	},
	"deleteWriting": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.WritingID](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, svc.DeleteWriting(ctx, id)
	},
	"getActiveChildCategories": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		parent, err := arg[*models.CategoryID](args, 0)
		if err != nil {
			return nil, err
		}
		return svc.GetActiveChildCategories(ctx, parent)
	},
	"getAllWritings": func(ctx context.Context, svc backend.Service, _ []json.RawMessage) (any, error) {
		lister, ok := svc.(backend.AllWritingsLister)
		if !ok {
			return nil, &backend.RemoteError{Code: backend.CodeMethodNotFound, Message: "getAllWritings"}
		}
		return lister.GetAllWritings(ctx)
	},
	"getCallerUserProfile": func(ctx context.Context, svc backend.Service, _ []json.RawMessage) (any, error) {
		return svc.GetCallerUserProfile(ctx)
	},
	"getCallerUserRole": func(ctx context.Context, svc backend.Service, _ []json.RawMessage) (any, error) {
		return svc.GetCallerUserRole(ctx)
	},
	"getCategories": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		parent, err := arg[*models.CategoryID](args, 0)
		if err != nil {
			return nil, err
		}
		return svc.GetCategories(ctx, parent)
	},
	"getCategory": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.CategoryID](args, 0)
		if err != nil {
			return nil, err
		}
		return svc.GetCategory(ctx, id)
	},
	"getPublishedWritings": func(ctx context.Context, svc backend.Service, _ []json.RawMessage) (any, error) {
		return svc.GetPublishedWritings(ctx)
	},
	"getUserProfile": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		user, err := arg[models.Principal](args, 0)
		if err != nil {
			return nil, err
		}
		return svc.GetUserProfile(ctx, user)
	},
	"getWriting": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.WritingID](args, 0)
		if err != nil {
			return nil, err
		}
		return svc.GetWriting(ctx, id)
	},
	"isCallerAdmin": func(ctx context.Context, svc backend.Service, _ []json.RawMessage) (any, error) {
		return svc.IsCallerAdmin(ctx)
	},
	"migrateWritings": func(ctx context.Context, svc backend.Service, _ []json.RawMessage) (any, error) {
		return svc.MigrateWritings(ctx)
	},
	"publishWriting": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.WritingID](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, svc.PublishWriting(ctx, id)
	},
	"saveCallerUserProfile": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		profile, err := arg[models.UserProfile](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, svc.SaveCallerUserProfile(ctx, profile)
	},
	"submitWriting": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		var in backend.WritingInput
		var err error
		if in.Title, err = arg[string](args, 0); err != nil {
			return nil, err
		}
		if in.CategoryIDs, err = arg[[]models.CategoryID](args, 1); err != nil {
			return nil, err
		}
		if in.Content, err = arg[string](args, 2); err != nil {
			return nil, err
		}
		if in.ContentWarnings, err = arg[[]string](args, 3); err != nil {
			return nil, err
		}
		return svc.SubmitWriting(ctx, in)
	},
	"unpublishWriting": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.WritingID](args, 0)
		if err != nil {
			return nil, err
		}
		return nil, svc.UnpublishWriting(ctx, id)
	},
	"updateCategory": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.CategoryID](args, 0)
		if err != nil {
			return nil, err
		}
		in, err := categoryInput(args, 1)
		if err != nil {
			return nil, err
		}
		return nil, svc.UpdateCategory(ctx, id, in)
	},
	"updateWriting": func(ctx context.Context, svc backend.Service, args []json.RawMessage) (any, error) {
		id, err := arg[models.WritingID](args, 0)
		if err != nil {
			return nil, err
		}
		var in backend.WritingInput
		if in.Title, err = arg[string](args, 1); err != nil {
			return nil, err
		}
		if in.Content, err = arg[string](args, 2); err != nil {
			return nil, err
		}
		if in.CategoryIDs, err = arg[[]models.CategoryID](args, 3); err != nil {
			return nil, err
		}
		if in.ContentWarnings, err = arg[[]string](args, 4); err != nil {
			return nil, err
		}
		return nil, svc.UpdateWriting(ctx, id, in)
	},
}
