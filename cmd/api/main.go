package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"text-summarizer/internal/app"
	"text-summarizer/internal/extract"
	"text-summarizer/internal/httputil"
	"text-summarizer/internal/ratelimit"
	"text-summarizer/internal/store"
	"text-summarizer/internal/summarizer"
)

const textTooShort = "Text must be at least 100 characters long for meaningful summarization"

var validationMessages = map[string]string{
	"text.required":   textTooShort,
	"text.trimmedmin": textTooShort,
}

type summarizeRequest struct {
	Text      string `json:"text" validate:"required,trimmedmin=100"`
	MaxLength int    `json:"max_length" validate:"omitempty,min=1"`
	MinLength int    `json:"min_length" validate:"omitempty,min=1"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type backendResponse struct {
	Mode        string `json:"mode"`
	LocalModel  string `json:"local_model"`
	RemoteModel string `json:"remote_model"`
	Device      string `json:"device"`
	Error       string `json:"error,omitempty"`
}

type eventResponse struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	PrimaryMode   string    `json:"primary_mode"`
	Backend       string    `json:"backend,omitempty"`
	BackendsTried []string  `json:"backends_tried"`
	Fallback      bool      `json:"fallback"`
	InputChars    int       `json:"input_chars"`
	SummaryChars  int       `json:"summary_chars"`
	Error         string    `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

func main() {
	deps, err := app.Build(context.Background())
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{Addr: addr, Handler: newRouter(deps), ReadHeaderTimeout: 10 * time.Second}
	deps.Log.Info("summarization api listening", "addr", addr, "backend", deps.Summarizer.Mode().String())
	if err := srv.ListenAndServe(); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) *chi.Mux {
	lim := deps.Limiter
	if lim == nil {
		lim = ratelimit.NoOp{}
	}

	r := httputil.NewRouter(deps.Log)
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Get("/backend", backendHandler(deps))
	r.Get("/events", eventsHandler(deps))
	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(lim, deps.Log))
		r.Post("/summarize", summarizeHandler(deps))
		r.Post("/summarize/file", uploadHandler(deps))
	})
	return r
}

func summarizeHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, deps.Config.MaxUploadSize)

		var req summarizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err, validationMessages)
			return
		}
		respond(w, r, deps, store.SourceHTTP, req)
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		docType, err := extract.DetectType(header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, maxFileSize))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := extract.Text(docType, content)
		if err != nil {
			if errors.Is(err, extract.ErrNoText) {
				httputil.Fail(deps.Log, w, textTooShort, err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "could not extract text from file", err, http.StatusBadRequest)
			return
		}

		req := summarizeRequest{Text: text}
		if req.MaxLength, err = formInt(r, "max_length"); err != nil {
			httputil.Fail(deps.Log, w, "max_length must be an integer", err, http.StatusBadRequest)
			return
		}
		if req.MinLength, err = formInt(r, "min_length"); err != nil {
			httputil.Fail(deps.Log, w, "min_length must be an integer", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err, validationMessages)
			return
		}
		respond(w, r, deps, store.SourceFile, req)
	}
}

// respond summarizes a validated request and writes the result.
func respond(w http.ResponseWriter, r *http.Request, deps app.Deps, source store.Source, req summarizeRequest) {
	ctx := r.Context()
	text := strings.TrimSpace(req.Text)

	start := time.Now()
	res, err := deps.Summarizer.Summarize(ctx, summarizer.Request{
		Text:      text,
		MaxLength: req.MaxLength,
		MinLength: req.MinLength,
	})
	deps.Record(ctx, app.NewEvent(source, deps.Summarizer.Mode().String(), text, res, err, time.Since(start)))
	if err != nil {
		httputil.Fail(deps.Log, w, err.Error(), err, http.StatusInternalServerError)
		return
	}
	if res.Fallback {
		deps.Log.Info("summary served by fallback backend", "backend", res.Backend.String())
	}

	w.Header().Set(httputil.BackendHeader, res.Backend.String())
	httputil.WriteJSON(w, http.StatusOK, summarizeResponse{Summary: res.Summary})
}

func backendHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := backendResponse{
			Mode:        deps.Summarizer.Mode().String(),
			LocalModel:  deps.Config.ModelName,
			RemoteModel: deps.Config.FallbackModel,
			Device:      deps.Config.LocalDevice,
		}
		if deps.Backend.Err != nil {
			resp.Error = deps.Backend.Err.Error()
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

func eventsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				httputil.Fail(deps.Log, w, "limit must be an integer", err, http.StatusBadRequest)
				return
			}
			limit = n
		}

		events, err := deps.Store.RecentEvents(r.Context(), store.ClampLimit(limit))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list events", err, http.StatusInternalServerError)
			return
		}
		out := make([]eventResponse, 0, len(events))
		for _, ev := range events {
			out = append(out, eventResponse{
				ID:            ev.ID.String(),
				Source:        string(ev.Source),
				PrimaryMode:   ev.PrimaryMode,
				Backend:       ev.Backend,
				BackendsTried: ev.BackendsTried,
				Fallback:      ev.Fallback,
				InputChars:    ev.InputChars,
				SummaryChars:  ev.SummaryChars,
				Error:         ev.Error,
				DurationMS:    ev.Duration.Milliseconds(),
				CreatedAt:     ev.CreatedAt,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
	}
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
