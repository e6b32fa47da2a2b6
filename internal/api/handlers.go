package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"heraldbot/internal/broadcast"
	"heraldbot/internal/scheduler"
	"heraldbot/internal/service"
	logx "heraldbot/pkg/logx"
)

// broadcastRequest is the wire shape shared by /broadcast and POST /jobs.
type broadcastRequest struct {
	Type      string              `json:"type"`
	GuildID   string              `json:"guildId"`
	ChannelID string              `json:"channelId,omitempty"`
	DMMode    string              `json:"dmMode,omitempty"`
	Embed     broadcast.EmbedData `json:"embedData"`
	CTAs      []broadcast.CTA     `json:"ctas,omitempty"`

	// RunAt is a schedule string ("in 10m" or "2026-02-08 21:30"), POST /jobs
	// only.
	RunAt     string `json:"runAt,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

func (req *broadcastRequest) target() broadcast.Target {
	if req.Type == "dm" {
		return broadcast.DMTarget(broadcast.DMMode(req.DMMode))
	}
	return broadcast.ChannelTarget(req.ChannelID)
}

func decodeBroadcastRequest(w http.ResponseWriter, r *http.Request) (*broadcastRequest, bool) {
	var req broadcastRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid json body"))
		return nil, false
	}
	if req.GuildID == "" || req.Embed.Description == "" {
		writeJSON(w, http.StatusBadRequest, errBody("guildId + embedData.description required"))
		return nil, false
	}
	if req.Type != "dm" && req.ChannelID == "" {
		writeJSON(w, http.StatusBadRequest, errBody("channelId required for channel type"))
		return nil, false
	}
	return &req, true
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBroadcastRequest(w, r)
	if !ok {
		return
	}
	payload := broadcast.BuildPayload(req.Embed, req.CTAs)

	rep, err := s.core.SubmitImmediate(r.Context(), req.GuildID, req.target(), payload)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	if rep != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": rep})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBroadcastRequest(w, r)
	if !ok {
		return
	}
	if req.RunAt == "" {
		writeJSON(w, http.StatusBadRequest, errBody("runAt required"))
		return
	}
	runAt, err := scheduler.ParseRunAt(req.RunAt, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		return
	}
	payload := broadcast.BuildPayload(req.Embed, req.CTAs)

	job, err := s.core.SubmitScheduled(r.Context(), req.GuildID, req.target(), payload, runAt, req.CreatedBy)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "job": job})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody("invalid limit"))
			return
		}
		limit = n
	}
	jobs := s.core.ListJobs(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.core.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errBody("job not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "job": job})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.core.CancelJob(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errBody("job not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeSubmitError maps validation failures to 400 and everything else to
// 500 with the error string, matching the external contract.
func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyDescription),
		errors.Is(err, service.ErrMissingChannel),
		errors.Is(err, service.ErrUnknownTarget),
		errors.Is(err, scheduler.ErrTooSoon),
		errors.Is(err, service.ErrCooldown),
		errors.Is(err, service.ErrDailyLimit):
		writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
	default:
		s.log.Warn("api submit failed", logx.Err(err))
		writeJSON(w, http.StatusInternalServerError, errBody(err.Error()))
	}
}
