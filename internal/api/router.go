package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/yongikim/photolio-lambda-functions/internal/api/recovery"
	"github.com/yongikim/photolio-lambda-functions/internal/api/respond"
	"github.com/yongikim/photolio-lambda-functions/internal/services"
)

// NewRouter wires HTTP routes to handlers and wraps them with the shared middleware.
// The middleware wraps the router itself so unmatched routes also carry CORS headers.
func NewRouter(svc *services.PhotoService, isHealthy func() bool, log zerolog.Logger) http.Handler {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)
	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.WriteNotFound(w, r, "route not found")
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	photos := NewPhotoHandler(svc)
	root.HandleFunc("/photos", photos.ListPhotos).Methods("GET")
	root.HandleFunc("/photos", photos.UploadPhotos).Methods("POST")
	root.HandleFunc("/photos", photos.DeletePhotos).Methods("DELETE")
	root.HandleFunc("/photos/delete", photos.DeletePhotos).Methods("POST")
	root.HandleFunc("/photos/{photoId}", photos.GetPhoto).Methods("GET")

	health := NewHealthHandler(isHealthy)
	root.HandleFunc("/api/health", health.CheckHealth).Methods("GET")

	return RequestLogger(log)(AccessLog(CORS(root)))
}
