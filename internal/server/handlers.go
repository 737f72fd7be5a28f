package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/nbkernels/nbkernels/pkg/envs"
	"github.com/nbkernels/nbkernels/pkg/errors"
	"github.com/nbkernels/nbkernels/pkg/kernels"
)

// relPath reports a path relative to the workspace root when it lies inside
// it; anything else stays absolute.
func (s *Server) relPath(path string) string {
	root := s.engine.WorkspaceRoot()
	if path == "" || !envs.IsWithin(path, root) {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)

	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidEnvironment,
		errors.ErrCodeOutsideWorkspace,
		errors.ErrCodeMissingKernelspec,
		errors.ErrCodeMalformedKernelspec:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeKernelNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeLockTimeout:
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = err.Error()
	s.writeJSON(w, status, body)
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.engine.ListEnvironments(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	for i := range infos {
		infos[i].Path = s.relPath(infos[i].Path)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"environments": infos})
}

type scanRequest struct {
	Path     string `json:"path"`
	MaxDepth int    `json:"max_depth"`
	DryRun   bool   `json:"dry_run"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Path == "" {
		req.Path = s.engine.WorkspaceRoot()
	} else if !filepath.IsAbs(req.Path) {
		req.Path = filepath.Join(s.engine.WorkspaceRoot(), req.Path)
	}

	result, err := s.engine.Scan(r.Context(), req.Path, req.MaxDepth, req.DryRun)
	if err != nil {
		s.writeError(w, err)
		return
	}

	for i := range result.Entries {
		result.Entries[i].Path = s.relPath(result.Entries[i].Path)
	}
	s.writeJSON(w, http.StatusOK, result)
}

type registerRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if !filepath.IsAbs(req.Path) {
		req.Path = filepath.Join(s.engine.WorkspaceRoot(), req.Path)
	}

	result, err := s.engine.Register(r.Context(), req.Path, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result.Path = s.relPath(result.Path)
	s.writeJSON(w, http.StatusOK, result)
}

type unregisterRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	var req unregisterRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	target := req.Path
	if target != "" && !filepath.IsAbs(target) {
		target = filepath.Join(s.engine.WorkspaceRoot(), target)
	}
	if target == "" {
		target = req.Name
	}

	result, err := s.engine.Unregister(r.Context(), target)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result.Path = s.relPath(result.Path)
	s.writeJSON(w, http.StatusOK, result)
}

// kernelspecBody is one kernel in the kernelspecs response, shaped like the
// front end's kernelspec API.
type kernelspecBody struct {
	Name        string        `json:"name"`
	ResourceDir string        `json:"resource_dir"`
	Spec        *kernels.Spec `json:"spec,omitempty"`
}

func (s *Server) handleKernelspecs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.engine.GetAllSpecs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	specs := make(map[string]kernelspecBody, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		specs[e.Name] = kernelspecBody{Name: e.Name, ResourceDir: e.ResourceDir, Spec: e.Spec}
		order = append(order, e.Name)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"kernelspecs": specs,
		"order":       order,
	})
}

func (s *Server) handleKernelspec(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	entry, err := s.engine.GetKernelSpec(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, kernelspecBody{
		Name:        entry.Name,
		ResourceDir: entry.ResourceDir,
		Spec:        entry.Spec,
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
