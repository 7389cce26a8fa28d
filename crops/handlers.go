package crops

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"krishilink/logger"
	"krishilink/models"
	"krishilink/utils"
)

type Handler struct {
	catalog *Catalog
	log     *logger.Logger
}

func NewHandler(catalog *Catalog, log *logger.Logger) *Handler {
	return &Handler{catalog: catalog, log: log.With("handler", "Crops")}
}

// GET /crops?type=&price=asc|desc&sort=asc|desc&limit=
func (h *Handler) GetCrops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params := r.URL.Query()

	sort, err := ParseSort(params.Get("price"), params.Get("sort"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	var limit int64
	if l, err := strconv.Atoi(params.Get("limit")); err == nil && l > 0 {
		limit = int64(l)
	}

	crops, err := h.catalog.List(r.Context(), Filter{Type: strings.TrimSpace(params.Get("type"))}, sort, limit)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, crops)
}

// GET /crops/:id
func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	crop, err := h.catalog.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, crop)
}

// GET /crops-owner?email=
func (h *Handler) GetOwnerCrops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, err := utils.RequireQueryEmail(r)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	crops, err := h.catalog.ListByOwner(r.Context(), email)
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, crops)
}

// POST /crops
func (h *Handler) CreateCrop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var crop models.Crop
	if err := utils.DecodeJSON(w, r, &crop); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	id, err := h.catalog.Create(r.Context(), crop, utils.GetUserEmailFromContext(r.Context()))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"acknowledged": true, "insertedId": id.Hex()})
}

// PATCH /update/crop/:id
func (h *Handler) UpdateCrop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch map[string]interface{}
	if err := utils.DecodeJSON(w, r, &patch); err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	modified, err := h.catalog.Update(r.Context(), ps.ByName("id"), patch, utils.GetUserEmailFromContext(r.Context()))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	if modified == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"status":        false,
			"message":       "No crop was updated",
			"modifiedCount": modified,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":        true,
		"message":       "Crop updated successfully",
		"modifiedCount": modified,
	})
}

// DELETE /delete/:id
func (h *Handler) DeleteCrop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deleted, err := h.catalog.Delete(r.Context(), ps.ByName("id"), utils.GetUserEmailFromContext(r.Context()))
	if err != nil {
		utils.RespondWithAppError(w, h.log, err)
		return
	}

	if deleted == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"status":       false,
			"message":      "Crop not found",
			"deletedCount": deleted,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":       true,
		"message":      "Crop deleted successfully",
		"deletedCount": deleted,
	})
}
