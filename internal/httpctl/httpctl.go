// Package httpctl exposes the transport Engine over HTTP: a small JSON
// control surface for status and commands, for remote control the way the
// teacher's internal/server exposed browser control over a recording
// session. That server owned a service.Service directly and answered from
// whichever goroutine handled the request; this one never touches the
// Engine directly from a request goroutine. Every request is translated
// into a transport.Command and pushed onto the Engine's queue, applied on
// the same goroutine that runs the period loop (see cmd/serve.go), so HTTP
// control composes safely with the real-time loop instead of racing it.
package httpctl

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jamtransport/jamtransport/internal/track"
	"github.com/jamtransport/jamtransport/internal/transport"
)

// Server is the HTTP control surface for one Engine.
type Server struct {
	eng  *transport.Engine
	addr string
	mux  *http.ServeMux
}

// New returns a Server bound to eng, listening on addr once Start is called.
func New(eng *transport.Engine, addr string) *Server {
	s := &Server{eng: eng, addr: addr, mux: http.NewServeMux()}
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/start", s.handleStart)
	s.mux.HandleFunc("/stop", s.handleStop)
	s.mux.HandleFunc("/record-enable", s.handleRecordEnable)
	s.mux.HandleFunc("/arm", s.handleArm)
	s.mux.HandleFunc("/seek", s.handleSeek)
	s.mux.HandleFunc("/monitor", s.handleMonitor)
	s.mux.HandleFunc("/mute", s.handleMute)
	return s
}

// Start blocks serving HTTP on s.addr.
func (s *Server) Start() error {
	slog.Info("httpctl: listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// StatusResponse is the JSON shape returned by GET /status.
type StatusResponse struct {
	State         string         `json:"state"`
	RecordEnabled bool           `json:"record_enabled"`
	Recording     bool           `json:"recording"`
	HeadFrame     int64          `json:"head_frame"`
	LastFrame     int64          `json:"last_frame"`
	SampleRate    int            `json:"sample_rate"`
	Underruns     int            `json:"underruns"`
	Overruns      int            `json:"overruns"`
	ArmA          int            `json:"arm_a"`
	ArmB          int            `json:"arm_b"`
	Tracks        []track.Track  `json:"tracks"`
}

// ErrorResponse is the JSON shape returned for a failed command.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st transport.Status
	done := make(chan error, 1)
	s.eng.Enqueue(transport.Command{
		Apply: func(e *transport.Engine) error {
			st = e.GetStatus()
			return nil
		},
		Done: done,
	})
	<-done

	writeJSON(w, http.StatusOK, StatusResponse{
		State:         string(st.State),
		RecordEnabled: st.RecordEnabled,
		Recording:     st.Recording,
		HeadFrame:     st.HeadFrame,
		LastFrame:     st.LastFrame,
		SampleRate:    st.SampleRate,
		Underruns:     st.Underruns,
		Overruns:      st.Overruns,
		ArmA:          st.ArmA,
		ArmB:          st.ArmB,
		Tracks:        st.Tracks,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, func(e *transport.Engine) error { return e.Start() })
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, func(e *transport.Engine) error { return e.Stop() })
}

func (s *Server) handleRecordEnable(w http.ResponseWriter, r *http.Request) {
	s.runCommand(w, func(e *transport.Engine) error { return e.ToggleRecordEnable() })
}

func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	track, err := intParam(r, "track")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	bus := r.URL.Query().Get("bus")
	s.runCommand(w, func(e *transport.Engine) error {
		if bus == "b" || bus == "B" {
			return e.ArmB(track)
		}
		return e.ArmA(track)
	})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	frame, err := int64Param(r, "frame")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	relative := r.URL.Query().Get("relative") == "true"
	s.runCommand(w, func(e *transport.Engine) error {
		if relative {
			return e.SeekRelative(frame)
		}
		return e.SeekAbsolute(frame)
	})
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	trackIdx, err := intParam(r, "track")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	attenA, err := intParam(r, "atten_a")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	attenB, err := intParam(r, "atten_b")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.runCommand(w, func(e *transport.Engine) error {
		return e.SetMonitor(trackIdx, attenA, attenB)
	})
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		value := r.URL.Query().Get("value") == "true"
		s.runCommand(w, func(e *transport.Engine) error {
			e.MuteAll(value)
			return nil
		})
		return
	}
	trackIdx, err := intParam(r, "track")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.runCommand(w, func(e *transport.Engine) error { return e.Mute(trackIdx) })
}

// runCommand enqueues apply and waits for the loop goroutine to run it,
// then responds with the resulting status or error.
func (s *Server) runCommand(w http.ResponseWriter, apply func(*transport.Engine) error) {
	done := make(chan error, 1)
	s.eng.Enqueue(transport.Command{Apply: apply, Done: done})
	if err := <-done; err != nil {
		slog.Warn("httpctl: command failed", "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	s.handleStatus(w, nil)
}

func intParam(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.URL.Query().Get(name))
}

func int64Param(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("httpctl: failed to encode response", "error", err)
	}
}
