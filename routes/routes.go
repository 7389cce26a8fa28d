package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"krishilink/crops"
	"krishilink/dashboard"
	"krishilink/interests"
	"krishilink/middleware"
	"krishilink/notify"
	"krishilink/ratelim"
	"krishilink/uploads"
	"krishilink/users"
)

func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", Index)
}

func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(uploadDir))
}

func AddCropRoutes(router *httprouter.Router, auth *middleware.Auth, h *crops.Handler) {
	router.GET("/crops", h.GetCrops)
	router.GET("/crops/:id", h.GetCrop)
	router.GET("/crops-owner", auth.Authenticate(h.GetOwnerCrops))
	router.POST("/crops", auth.Authenticate(h.CreateCrop))
	router.PATCH("/update/crop/:id", auth.Authenticate(h.UpdateCrop))
	router.DELETE("/delete/:id", auth.Authenticate(h.DeleteCrop))
}

func AddInterestRoutes(router *httprouter.Router, auth *middleware.Auth, h *interests.Handler) {
	router.POST("/crops/:id/interests", auth.Authenticate(h.AddInterest))
	router.GET("/crops/:id/interests", auth.Authenticate(h.GetCropInterests))
	router.PATCH("/crops/:id/interests/:interestId", auth.Authenticate(h.UpdateInterestStatus))
	router.GET("/interests/by", auth.Authenticate(h.GetMyInterests))
}

func AddDashboardRoutes(router *httprouter.Router, auth *middleware.Auth, h *dashboard.Handler) {
	router.GET("/dashboard/stats", auth.Authenticate(h.GetStats))
}

func AddUserRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, h *users.Handler) {
	router.POST("/user", rateLimiter.Limit(h.CreateUser))
}

func AddUploadRoutes(router *httprouter.Router, auth *middleware.Auth, rateLimiter *ratelim.RateLimiter, images *uploads.Images) {
	router.POST("/upload/crop-image", rateLimiter.Limit(auth.Authenticate(images.UploadCropImage)))
}

func AddRealtimeRoutes(router *httprouter.Router, hub *notify.Hub) {
	router.GET("/ws/interests", hub.ServeWS)
}
