package dashboard

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"krishilink/logger"
	"krishilink/utils"
)

type Handler struct {
	agg *Aggregator
	log *logger.Logger
}

func NewHandler(agg *Aggregator, log *logger.Logger) *Handler {
	return &Handler{agg: agg, log: log.With("handler", "Dashboard")}
}

// GET /dashboard/stats?email=
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, err := utils.RequireQueryEmail(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	stats, err := h.agg.Stats(r.Context(), email)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, stats)
}
