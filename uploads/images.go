// Package uploads stores crop photos as resized JPEGs with a square thumbnail.
package uploads

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"krishilink/apperr"
	"krishilink/logger"
	"krishilink/utils"
)

const (
	maxUploadBytes = 10 << 20
	maxDimension   = 1200
	thumbSize      = 300
)

type Result struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

type Images struct {
	dir       string
	urlPrefix string
	log       *logger.Logger
	newName   func() string
}

// NewImages writes under dir/crops and returns URLs below urlPrefix.
func NewImages(dir, urlPrefix string, log *logger.Logger) *Images {
	return &Images{
		dir:       dir,
		urlPrefix: urlPrefix,
		log:       log.With("service", "CropImages"),
		newName:   uuid.NewString,
	}
}

func (s *Images) SaveCropImage(src io.Reader) (Result, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, apperr.BadRequest("unsupported image")
	}

	cropDir := filepath.Join(s.dir, "crops")
	if err := os.MkdirAll(cropDir, 0o755); err != nil {
		return Result{}, apperr.Internal(err, "create upload dir")
	}

	name := s.newName()
	full := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	thumb := imaging.Fill(img, thumbSize, thumbSize, imaging.Center, imaging.Lanczos)

	fullName := name + ".jpg"
	thumbName := name + "_thumb.jpg"
	if err := imaging.Save(full, filepath.Join(cropDir, fullName), imaging.JPEGQuality(85)); err != nil {
		return Result{}, apperr.Internal(err, "save image")
	}
	if err := imaging.Save(thumb, filepath.Join(cropDir, thumbName), imaging.JPEGQuality(80)); err != nil {
		return Result{}, apperr.Internal(err, "save thumbnail")
	}

	return Result{
		URL:       path.Join(s.urlPrefix, "crops", fullName),
		Thumbnail: path.Join(s.urlPrefix, "crops", thumbName),
	}, nil
}

// POST /upload/crop-image (multipart field "image")
func (s *Images) UploadCropImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondWithAppError(w, s.log, apperr.BadRequest("invalid form"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithAppError(w, s.log, apperr.BadRequest("image is required"))
		return
	}
	defer file.Close()

	res, err := s.SaveCropImage(file)
	if err != nil {
		utils.RespondWithAppError(w, s.log, err)
		return
	}
	s.log.Info("crop image stored", "file", header.Filename, "url", res.URL, "by", utils.GetUserEmailFromContext(r.Context()))
	utils.RespondWithJSON(w, http.StatusCreated, res)
}
