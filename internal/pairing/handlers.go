package pairing

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"arena/internal/models"
	"arena/internal/utils"
)

// --- Join Handler ---
func (s *Service) JoinHandler(w http.ResponseWriter, r *http.Request) {
	var req models.JoinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "playerId required"})
		return
	}

	// Queuing again abandons any previous pairing, so a later check poll
	// reflects the new attempt rather than a finished match.
	s.Forget(req.PlayerID)

	added, err := s.queue.Enqueue(r.Context(), req.PlayerID)
	if err != nil {
		s.logger.Error("enqueue failed", zap.String("playerId", req.PlayerID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to join queue"})
		return
	}
	s.refreshQueueGauge(r)

	if !added {
		utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "already queued"})
		return
	}
	s.logger.Info("player queued", zap.String("playerId", req.PlayerID))
	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "queued"})
}

// --- Cancel Handler ---
func (s *Service) CancelHandler(w http.ResponseWriter, r *http.Request) {
	var req models.JoinReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "playerId required"})
		return
	}

	if err := s.queue.Remove(r.Context(), req.PlayerID); err != nil {
		s.logger.Error("cancel failed", zap.String("playerId", req.PlayerID), zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to cancel"})
		return
	}
	s.refreshQueueGauge(r)

	utils.WriteJSON(w, http.StatusOK, models.Resp{OK: true, Info: "cancelled"})
}

// --- Check Handler ---
func (s *Service) CheckHandler(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, models.Resp{OK: false, Info: "playerId required"})
		return
	}

	pairing, ok := s.Lookup(playerID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if !ok {
		json.NewEncoder(w).Encode(models.CheckResp{Matched: false})
		return
	}
	json.NewEncoder(w).Encode(models.CheckResp{
		Matched: true,
		MatchID: pairing.MatchID,
		Slot:    pairing.Slot,
		Token:   pairing.Token,
	})
}

// --- Counters Handler ---
func (s *Service) CountersHandler(w http.ResponseWriter, r *http.Request) {
	waiting, err := s.queue.Waiting(r.Context())
	if err != nil {
		s.logger.Error("reading queue length", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, models.Resp{OK: false, Info: "failed to read counters"})
		return
	}
	s.metrics.QueueWaiting.Set(float64(waiting))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.CountersResp{Waiting: waiting})
}

func (s *Service) refreshQueueGauge(r *http.Request) {
	if waiting, err := s.queue.Waiting(r.Context()); err == nil {
		s.metrics.QueueWaiting.Set(float64(waiting))
	}
}
