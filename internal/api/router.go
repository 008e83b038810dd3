package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/errandly/errandly/internal/blob"
	"github.com/errandly/errandly/internal/service"
)

// Server bundles the handlers' dependencies.
type Server struct {
	Users    *service.UserService
	Tasks    *service.TaskService
	Messages *service.MessageService
	Blobs    blob.Store
	Version  string
}

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/v1/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(s.Version))
	})
	r.Handle("/metrics", promhttp.Handler())

	// registration is the only route reachable without a resolved identity
	r.Post("/api/v1/users", s.createUser)

	r.Group(func(r chi.Router) {
		r.Use(WithIdentity(s.Users))

		getID := func(r *http.Request) int64 {
			var id int64
			_, _ = fmt.Sscanf(chi.URLParam(r, "id"), "%d", &id)
			return id
		}

		r.Route("/api/v1/users", func(r chi.Router) {
			r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
				s.updateUser(w, req, getID(req))
			})
			r.Put("/me/blocked", s.updateBlockedUsers)
			r.Put("/me/min-task-price", s.updateMinTaskPrice)
		})

		r.Route("/api/v1/tasks", func(r chi.Router) {
			r.Get("/", s.listTasks)
			r.Post("/", s.createTask)

			r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
				s.getTask(w, req, getID(req))
			})
			r.Put("/{id}/accept", func(w http.ResponseWriter, req *http.Request) {
				s.acceptTask(w, req, getID(req))
			})
			r.Put("/{id}/complete", func(w http.ResponseWriter, req *http.Request) {
				s.completeTask(w, req, getID(req))
			})
			r.Put("/{id}/cancel", func(w http.ResponseWriter, req *http.Request) {
				s.cancelTask(w, req, getID(req))
			})

			r.Get("/{id}/messages", func(w http.ResponseWriter, req *http.Request) {
				s.listMessages(w, req, getID(req))
			})
			r.Post("/{id}/messages/text", func(w http.ResponseWriter, req *http.Request) {
				s.postTextMessage(w, req, getID(req))
			})
			r.Post("/{id}/messages/image", func(w http.ResponseWriter, req *http.Request) {
				s.postImageMessage(w, req, getID(req))
			})
		})
	})

	return r
}
