package users

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"krishilink/logger"
	"krishilink/models"
	"krishilink/utils"
)

type Handler struct {
	registry *Registry
	log      *logger.Logger
}

func NewHandler(registry *Registry, log *logger.Logger) *Handler {
	return &Handler{registry: registry, log: log.With("handler", "Users")}
}

// POST /user
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var user models.User
	if err := utils.DecodeJSON(w, r, &user); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	res, err := h.registry.Register(r.Context(), user)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
