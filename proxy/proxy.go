// Package proxy serves an upstream site with every HTML response localized
// on the way through.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minios-linux/domlokit/dom"
	"github.com/minios-linux/domlokit/walker"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// decodable lists the content codings the proxy can undo, in preference
// order.
var decodable = []string{"zstd", "gzip"}

// Server is a localizing reverse proxy.
type Server struct {
	upstream *url.URL
	walker   *walker.Walker
	log      zerolog.Logger
	proxy    *httputil.ReverseProxy
	router   chi.Router

	localized   atomic.Int64
	passthrough atomic.Int64
}

// New returns a proxy for upstream, an absolute http(s) URL.
func New(upstream string, w *walker.Walker, logger zerolog.Logger) (*Server, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("proxy: invalid upstream %q: %w", upstream, err)
	}
	if target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, fmt.Errorf("proxy: upstream %q must be an absolute http(s) URL", upstream)
	}

	s := &Server{upstream: target, walker: w, log: logger}
	s.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
			if enc := filterEncodings(r.In.Header.Get("Accept-Encoding")); enc != "" {
				r.Out.Header.Set("Accept-Encoding", enc)
			} else {
				r.Out.Header.Del("Accept-Encoding")
			}
		},
		ModifyResponse: s.modifyResponse,
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, err error) {
			s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("upstream error")
			http.Error(rw, "upstream unavailable", http.StatusBadGateway)
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/*", s.proxy)
	s.router = r
	return s, nil
}

// Handler returns the proxy's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info().Str("listen", addr).Str("upstream", s.upstream.String()).Msg("proxy started")

	select {
	case err := <-errCh:
		return fmt.Errorf("proxy: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("proxy: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("proxy: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"upstream":    s.upstream.String(),
		"localized":   s.localized.Load(),
		"passthrough": s.passthrough.Load(),
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// filterEncodings keeps the codings from an Accept-Encoding header that
// the proxy can decode.
func filterEncodings(accept string) string {
	var keep []string
	for _, part := range strings.Split(accept, ",") {
		coding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		for _, d := range decodable {
			if coding == d {
				keep = append(keep, d)
			}
		}
	}
	return strings.Join(keep, ", ")
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/html"
}

func (s *Server) modifyResponse(resp *http.Response) error {
	if !isHTML(resp.Header.Get("Content-Type")) || resp.Request.Method == http.MethodHead {
		s.passthrough.Add(1)
		return nil
	}

	coding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	decoded, err := decode(resp.Body, coding)
	if err != nil {
		if errors.Is(err, errUnsupportedCoding) {
			s.log.Warn().Str("encoding", coding).Str("path", resp.Request.URL.Path).Msg("cannot decode response, passing through")
			s.passthrough.Add(1)
			return nil
		}
		return err
	}
	resp.Body.Close()
	resp.Header.Del("Content-Encoding")

	out, stats, err := Localize(s.walker, decoded, resp.Header.Get("Content-Type"))
	if err != nil {
		s.log.Warn().Err(err).Str("path", resp.Request.URL.Path).Msg("localization failed, passing original body")
		s.passthrough.Add(1)
		setBody(resp, decoded)
		return nil
	}

	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Header.Del("Etag")
	setBody(resp, out)
	s.localized.Add(1)
	s.log.Debug().
		Str("path", resp.Request.URL.Path).
		Int("changed", stats.Changed).
		Int("attrs_changed", stats.AttrsChanged).
		Msg("localized response")
	return nil
}

func setBody(resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

var errUnsupportedCoding = errors.New("unsupported content coding")

func decode(body io.Reader, coding string) ([]byte, error) {
	switch coding {
	case "", "identity":
		return io.ReadAll(body)
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("proxy: gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("proxy: zstd: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return nil, errUnsupportedCoding
}

// Localize runs one full pass over an HTML document and renders it as
// UTF-8. contentType is used to pick the source charset.
func Localize(w *walker.Walker, body []byte, contentType string) ([]byte, walker.Stats, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, walker.Stats{}, fmt.Errorf("decoding charset: %w", err)
	}
	tree, err := dom.Parse(r)
	if err != nil {
		return nil, walker.Stats{}, err
	}
	root, err := tree.Body()
	if err != nil {
		return nil, walker.Stats{}, err
	}
	stats, err := w.Pass(tree, root)
	if err != nil {
		return nil, stats, err
	}

	var buf bytes.Buffer
	if err := tree.Render(&buf); err != nil {
		return nil, stats, fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.Bytes(), stats, nil
}
