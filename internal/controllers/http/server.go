package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Agrid-Dev/solarloop/internal/controllers/dto"
	"github.com/Agrid-Dev/solarloop/internal/export"
	"github.com/Agrid-Dev/solarloop/internal/ports"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
)

type Server struct {
	svc      ports.LoopService
	srv      *http.Server
	mux      *http.ServeMux
	deviceID string
}

// New returns a runnable server.
func New(svc ports.LoopService, addr string, deviceID string) *Server {
	mux := http.NewServeMux()
	s := &Server{svc: svc, mux: mux, deviceID: deviceID}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)
	mux.HandleFunc("GET /v1/params", s.handleGetParams)
	mux.HandleFunc("GET /v1/series", s.handleGetSeries)
	mux.HandleFunc("GET /v1/summary", s.handleGetSummary)

	// Write
	mux.HandleFunc("POST /v1/enabled", s.handlePostEnabled)
	mux.HandleFunc("POST /v1/run", s.handlePostRun)
	mux.HandleFunc("POST /v1/derating", s.handlePostDerating)
	mux.HandleFunc("POST /v1/params/{name}", s.handlePostParam)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handle mounts an extra handler, e.g. the websocket stream.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handleGetParams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.FromParams(s.svc.Params()))
}

func (s *Server) handleGetSeries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Series())
}

func (s *Server) handleGetSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, export.Summarize(s.svc.Series()))
}

func (s *Server) handlePostEnabled(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v bool) error {
		s.svc.SetEnabled(v)
		return nil
	})
}

func (s *Server) handlePostRun(w http.ResponseWriter, r *http.Request) {
	// body: {"value": {"efficiency": 0.7, ...}}
	postValue(s, w, r, func(v dto.Params) error {
		p, err := v.ToParams()
		if err != nil {
			return err
		}
		return s.svc.Rerun(p)
	})
}

func (s *Server) handlePostDerating(w http.ResponseWriter, r *http.Request) {
	// body: {"value": "none"}
	postValue(s, w, r, func(v string) error {
		d, err := solarloop.ParseDerating(v)
		if err != nil {
			return err
		}
		p := s.svc.Params()
		p.Derating = d
		return s.svc.Rerun(p)
	})
}

func (s *Server) handlePostParam(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	postValue(s, w, r, func(v float64) error {
		p, err := s.svc.Params().Set(name, v)
		if err != nil {
			return err
		}
		return s.svc.Rerun(p)
	})
}

// ---- generic helpers ----
func (s *Server) respondSnapshot(w http.ResponseWriter) {
	out := dto.FromSnapshot(s.svc.Get())
	out.DeviceID = s.deviceID
	writeJSON(w, http.StatusOK, out)
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondSnapshot(w)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
