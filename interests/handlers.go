package interests

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"krishilink/logger"
	"krishilink/models"
	"krishilink/utils"
)

type Handler struct {
	ledger *Ledger
	log    *logger.Logger
}

func NewHandler(ledger *Ledger, log *logger.Logger) *Handler {
	return &Handler{ledger: ledger, log: log.With("handler", "Interests")}
}

// POST /crops/:id/interests
func (h *Handler) AddInterest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var payload models.Interest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	res, err := h.ledger.Append(r.Context(), ps.ByName("id"), payload, utils.GetUserEmailFromContext(r.Context()))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /crops/:id/interests?email=
func (h *Handler) GetCropInterests(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email, err := utils.RequireQueryEmail(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	list, err := h.ledger.ListForCrop(r.Context(), ps.ByName("id"), email)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"interests": list})
}

// GET /interests/by?email=
func (h *Handler) GetMyInterests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, err := utils.RequireQueryEmail(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	list, err := h.ledger.ListForUser(r.Context(), email)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// PATCH /crops/:id/interests/:interestId
func (h *Handler) UpdateInterestStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Status string `json:"status"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	res, err := h.ledger.SetStatus(r.Context(), ps.ByName("id"), ps.ByName("interestId"), body.Status, utils.GetUserEmailFromContext(r.Context()))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":       true,
		"status":        strings.ToLower(strings.TrimSpace(body.Status)),
		"modifiedCount": res.ModifiedCount,
	})
}
