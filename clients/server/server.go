// Package server exposes the composer over HTTP. Rendered creatives are kept
// in memory and served back by id.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xob0t/creativekit/pkg/campaign"
	"github.com/xob0t/creativekit/pkg/colors"
	"github.com/xob0t/creativekit/pkg/compose"
	"github.com/xob0t/creativekit/pkg/export"
)

// ── Asset Manager ──

type asset struct {
	Name    string
	Data    []byte
	Mime    string
	Created time.Time
}

type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

func (am *assetManager) add(name string, data []byte, mimeType string) string {
	id := randomID()
	am.mu.Lock()
	am.assets[id] = &asset{Name: name, Data: data, Mime: mimeType, Created: time.Now()}
	am.mu.Unlock()
	return id
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

type assetInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int    `json:"size"`
	URL  string `json:"url"`
}

func (am *assetManager) listAll() []assetInfo {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]assetInfo, 0, len(am.assets))
	for id, a := range am.assets {
		result = append(result, assetInfo{ID: id, Name: a.Name, Mime: a.Mime, Size: len(a.Data), URL: assetURL(id)})
	}
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func assetURL(id string) string { return "/api/assets/" + id }

// ── Server ──

// Options configures a Server.
type Options struct {
	Composer *compose.Composer
	Ext      string // encoding of stored creatives; default ".png"
	MaxBody  int64  // upload limit in bytes; default 32 MiB
	Logger   *slog.Logger
}

// Server handles compose requests.
type Server struct {
	composer *compose.Composer
	assets   *assetManager
	ext      string
	maxBody  int64
	logger   *slog.Logger
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Composer == nil {
		return nil, errors.New("server needs a composer")
	}
	if opts.Ext == "" {
		opts.Ext = ".png"
	}
	if _, err := export.Format(opts.Ext); err != nil {
		return nil, err
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = 32 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		composer: opts.Composer,
		assets:   newAssetManager(),
		ext:      opts.Ext,
		maxBody:  opts.MaxBody,
		logger:   logger,
	}, nil
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/compose", s.handleCompose)
	mux.HandleFunc("GET /api/brief/example", s.handleExampleBrief)
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// RunServe listens on addr until ctx is cancelled, then drains in-flight
// requests.
func RunServe(ctx context.Context, addr string, opts Options) error {
	s, err := New(opts)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              addr,
		Handler:           withLogging(s.Handler(), s.logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ── Compose ──

type composeVariant struct {
	campaign.VariantReport
	URL           string `json:"url,omitempty"`
	PreOverlayURL string `json:"pre_overlay_url,omitempty"`
}

type composeResponse struct {
	Variants []composeVariant `json:"variants"`
	Error    string           `json:"error,omitempty"`
}

// parseCompose reads a multipart compose request:
//
//	image          source photograph (png or jpeg)
//	messages       JSON object of language to text, or
//	message        a single English message
//	brand_colors   comma-separated hex colours
//	aspect_ratios  comma-separated names; empty means all
func (s *Server) parseCompose(r *http.Request) (compose.Request, error) {
	var req compose.Request

	if err := r.ParseMultipartForm(s.maxBody); err != nil {
		return req, fmt.Errorf("parse form: %w", err)
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return req, errors.New("no image uploaded")
	}
	defer file.Close()
	if req.Source, err = export.Decode(file); err != nil {
		return req, err
	}

	if raw := r.FormValue("messages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Messages); err != nil {
			return req, fmt.Errorf("parse messages: %w", err)
		}
	} else if msg := strings.TrimSpace(r.FormValue("message")); msg != "" {
		req.Messages = map[string]string{campaign.DefaultLanguage: msg}
	}

	if raw := r.FormValue("brand_colors"); raw != "" {
		palette, err := colors.ParsePalette(splitList(raw))
		if err != nil {
			return req, fmt.Errorf("brand colors: %w", err)
		}
		req.Palette = palette
	}

	if req.AspectRatios, err = compose.ParseAspectRatios(splitList(r.FormValue("aspect_ratios"))); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	req, err := s.parseCompose(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, composeResponse{Error: err.Error()})
		return
	}

	res, composeErr := s.composer.CreateVariations(r.Context(), req)
	if res == nil {
		writeJSON(w, statusFor(composeErr), composeResponse{Error: composeErr.Error()})
		return
	}

	resp := composeResponse{Variants: make([]composeVariant, 0, len(res.Keys))}
	for _, k := range res.Keys {
		v := res.Variants[k]
		cv := composeVariant{VariantReport: campaign.NewVariantReport(v)}
		if v.Err == nil {
			if cv.URL, cv.PreOverlayURL, err = s.store(k, v); err != nil {
				cv.Error = err.Error()
			}
		}
		resp.Variants = append(resp.Variants, cv)
	}

	status := http.StatusOK
	if composeErr != nil {
		resp.Error = composeErr.Error()
		status = statusFor(composeErr)
	}
	s.logger.Info("composed", "variants", len(resp.Variants), "failed", len(res.Failed()))
	writeJSON(w, status, resp)
}

func (s *Server) store(k compose.Key, v *compose.Variant) (final, pre string, err error) {
	mime := export.ContentType(s.ext)
	base := k.Language + "_" + k.Aspect

	data, err := export.Bytes(s.ext, v.Final)
	if err != nil {
		return "", "", err
	}
	finalID := s.assets.add(base+s.ext, data, mime)

	data, err = export.Bytes(s.ext, v.PreOverlay)
	if err != nil {
		return "", "", err
	}
	preID := s.assets.add(base+"_pre"+s.ext, data, mime)

	return assetURL(finalID), assetURL(preID), nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, compose.ErrNoMessages), errors.Is(err, compose.ErrNoSource):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, compose.ErrAllVariantsFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleExampleBrief(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(campaign.GetExampleJSON()))
}

// ── Asset serving ──

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, a.Name))
	w.Write(a.Data)
}

func (s *Server) handleListAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.assets.listAll())
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
