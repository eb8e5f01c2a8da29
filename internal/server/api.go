package server

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kubeadapt/kubeadapt-console/internal/editor"
	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/manifest"
	"github.com/kubeadapt/kubeadapt-console/internal/templates"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// --- manifests ---

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	f := model.NewFormState()
	if !readRequest(w, r, &f, false) {
		return
	}
	start := time.Now()
	text, err := manifest.ToYAML(f)
	s.deps.Metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.RenderResponse{YAML: text})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req model.ManifestRequest
	if !readRequest(w, r, &req, false) {
		return
	}
	writeJSON(w, http.StatusOK, manifest.Parse(req.YAML))
}

// handleValidate runs the decode, structural, and schema checks against
// the starter state. Malformed YAML is a 422 with the parser message.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req model.ManifestRequest
	if !readRequest(w, r, &req, false) {
		return
	}
	res := editor.Sync(model.NewFormState(), req.YAML, s.opts.ErrorDisplayLimit)
	if res.Stage == model.StageParse {
		s.deps.Metrics.ValidationErrorsTotal.WithLabelValues(model.StageParse).Inc()
		writeError(w, http.StatusUnprocessableEntity, res.Message)
		return
	}
	if !res.Accepted {
		s.deps.Metrics.ValidationErrorsTotal.WithLabelValues(res.Stage).Inc()
	}
	errs := res.Errors
	if errs == nil {
		errs = []model.FieldError{}
	}
	writeJSON(w, http.StatusOK, model.ValidateResponse{
		ValidationResult: model.ValidationResult{Valid: res.Accepted, Errors: errs},
		Summary:          res.Message,
	})
}

// --- templates ---

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	list, err := templates.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := templates.Lookup(r.PathValue("type"))
	if err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, consoleerrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- sessions ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var initial *model.FormState
	if !readRequest(w, r, &initial, true) {
		return
	}
	sess, err := s.deps.Editor.Create(initial)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Editor.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Editor.Delete(r.PathValue("id")); err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	var f model.FormState
	if !readRequest(w, r, &f, false) {
		return
	}
	sess, err := s.deps.Editor.UpdateForm(r.PathValue("id"), f)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleApplyYAML answers 200 for both accepted and rejected edits; the
// SyncResult says which.
func (s *Server) handleApplyYAML(w http.ResponseWriter, r *http.Request) {
	var req model.ManifestRequest
	if !readRequest(w, r, &req, false) {
		return
	}
	res, err := s.deps.Editor.ApplyYAML(r.PathValue("id"), req.YAML)
	if err != nil {
		writeError(w, sessionStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func sessionStatus(err error) int {
	if stderrors.Is(err, consoleerrors.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// --- cluster ---

func (s *Server) handleCluster(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Capabilities == nil {
		writeError(w, http.StatusServiceUnavailable, "cluster capabilities unknown")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Capabilities)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req model.ManifestRequest
	if !readRequest(w, r, &req, false) {
		return
	}
	res, err := s.deps.Cluster.Apply(r.Context(), req.YAML)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	status := http.StatusOK
	if res.Action == model.ActionCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req model.ManifestRequest
	if !readRequest(w, r, &req, false) {
		return
	}
	res, err := s.deps.Cluster.Delete(r.Context(), req.YAML)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	if s.deps.Resources == nil {
		writeError(w, http.StatusServiceUnavailable, "resource store unavailable")
		return
	}
	items, err := s.deps.Resources.List(r.PathValue("kind"), r.URL.Query().Get("namespace"))
	if err != nil {
		status := http.StatusInternalServerError
		if stderrors.Is(err, consoleerrors.ErrUnsupportedKind) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePodStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "pod stats unavailable: metrics-server not detected")
		return
	}
	ns, pod := r.PathValue("namespace"), r.PathValue("pod")
	ps, ok := s.deps.Stats.PodStats(ns, pod)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no stats for pod %s/%s", ns, pod))
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// handleLogs streams container logs as text/plain, flushing after every
// chunk so followed logs arrive promptly.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.LogOptions{
		Namespace: r.PathValue("namespace"),
		Pod:       r.PathValue("pod"),
		Container: q.Get("container"),
	}
	if v := q.Get("tail"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "tail must be a non-negative integer")
			return
		}
		opts.TailLines = &n
	}
	if v := q.Get("follow"); v != "" {
		follow, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "follow must be a boolean")
			return
		}
		opts.Follow = follow
	}

	stream, err := s.deps.Cluster.Logs(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			_ = rc.Flush()
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			slog.Debug("log stream ended", "namespace", opts.Namespace, "pod", opts.Pod, "error", err)
			return
		}
	}
}
