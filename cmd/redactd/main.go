// redactd serves the redaction and stamping engine over HTTP.
//
//	POST /api/redact  multipart: file, search_text, case_sensitive, remove_images
//	POST /api/stamp   multipart: file, stamp_text, font_size, opacity
//
// Both respond with application/pdf on success and a JSON error body
// otherwise.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/JohnJulian65/Branded-Adobe-Duplicate/engine"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/ir/semantic"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/observability"
	"github.com/JohnJulian65/Branded-Adobe-Duplicate/stamp"
)

const (
	defaultFontSize = 48.0
	defaultOpacity  = 0.3
)

func main() {
	addr := flag.String("addr", envOr("REDACTD_ADDR", ":5000"), "listen address")
	maxUpload := flag.Int64("max-upload", 50<<20, "maximum upload size in bytes")
	maxPages := flag.Int("max-pages", 2000, "maximum pages per document")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	eng := engine.New(engine.Options{
		Logger: observability.Slog(logger),
		Limits: engine.Limits{
			MaxInputBytes: *maxUpload,
			MaxPages:      *maxPages,
		},
	})

	srv := &server{engine: eng, logger: logger, maxUpload: *maxUpload}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/redact", srv.handleRedact)
	mux.HandleFunc("POST /api/stamp", srv.handleStamp)

	httpSrv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

type server struct {
	engine    *engine.Engine
	logger    *slog.Logger
	maxUpload int64
}

func (s *server) handleRedact(w http.ResponseWriter, r *http.Request) {
	input, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	req := engine.RedactRequest{
		SearchText:    r.FormValue("search_text"),
		CaseSensitive: formBool(r, "case_sensitive"),
		RemoveImages:  formBool(r, "remove_images"),
		Fill:          semantic.Black,
	}

	result, err := s.engine.Redact(r.Context(), input, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("X-Redaction-Count", strconv.Itoa(result.Applied))
	w.Write(result.Output)
}

func (s *server) handleStamp(w http.ResponseWriter, r *http.Request) {
	input, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	spec := stamp.Spec{
		Text:     r.FormValue("stamp_text"),
		FontSize: formFloat(r, "font_size", defaultFontSize),
		Opacity:  formFloat(r, "opacity", defaultOpacity),
		Rotation: formFloat(r, "rotation", 0),
	}

	output, err := s.engine.Stamp(r.Context(), input, spec)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(output)
}

// readUpload pulls the multipart "file" part, capped at maxUpload.
func (s *server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &engine.Error{Kind: engine.KindResourceLimit, Msg: "upload too large"}
		}
		return nil, &engine.Error{Kind: engine.KindInputConstraint, Msg: "malformed multipart form", Err: err}
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, &engine.Error{Kind: engine.KindInputConstraint, Msg: "missing file", Err: err}
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	kind := engine.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case engine.KindParse, engine.KindInputConstraint:
		status = http.StatusBadRequest
	case engine.KindResourceLimit:
		status = http.StatusRequestEntityTooLarge
	}

	s.logger.Warn("request failed", "kind", kind.String(), "status", status, "error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.FormValue(key))
	return v
}

func formFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.FormValue(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
