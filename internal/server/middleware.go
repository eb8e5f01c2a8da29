package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// api registers an API route with instrumentation, auth, body decoding,
// and the request timeout.
func (s *Server) api(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, s.authenticate(s.decodeBody(s.withTimeout(h)))))
}

// stream registers a long-lived API route. It is not bound by the request
// timeout.
func (s *Server) stream(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, s.authenticate(h)))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// instrument records request count and latency under the route pattern.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	// Label by path only; the method is already part of the pattern.
	if i := strings.IndexByte(route, ' '); i >= 0 {
		route = route[:i] + ":" + route[i+1:]
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.deps.Metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.deps.Metrics.APIRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// authenticate requires "Authorization: Bearer <key>" when an API key is
// configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	if s.opts.APIKey == "" {
		return next
	}
	want := []byte("Bearer " + s.opts.APIKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeBody bounds the request body by MaxRequestBytes and transparently
// decompresses zstd bodies. The bound applies to both the compressed and
// decompressed size.
func (s *Server) decodeBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := s.opts.MaxRequestBytes
		if limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		switch enc := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))); enc {
		case "", "identity":
		case "zstd":
			opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
			if limit > 0 {
				opts = append(opts, zstd.WithDecoderMaxMemory(uint64(limit)))
			}
			dec, err := zstd.NewReader(r.Body, opts...)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid zstd body: %v", err))
				return
			}
			defer dec.Close()
			body := io.ReadCloser(dec.IOReadCloser())
			if limit > 0 {
				body = http.MaxBytesReader(w, body, limit)
			}
			r.Body = body
			r.Header.Del("Content-Encoding")
		default:
			writeError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content encoding %q", enc))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withTimeout bounds the handler's context by RequestTimeout.
func (s *Server) withTimeout(next http.HandlerFunc) http.HandlerFunc {
	if s.opts.RequestTimeout <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// requireCluster answers 503 while no cluster is connected.
func (s *Server) requireCluster(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Cluster == nil || s.deps.ClusterStatus == nil || !s.deps.ClusterStatus.ClusterConnected() {
			writeError(w, http.StatusServiceUnavailable, "console is not connected to a cluster")
			return
		}
		next(w, r)
	}
}
