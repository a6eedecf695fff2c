package handlers

import (
	"github.com/go-chi/chi"

	"points-mall/internal/middleware"
)

// Router wires every endpoint. Login, register and the public catalog reads
// skip the auth middleware; everything else requires a bearer token.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logging(s.Log))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.RegisterUser)
		r.Post("/auth/login", s.LoginUser)

		r.Get("/products", s.ListProducts)
		r.Get("/products/{id}", s.GetProduct)
		r.Get("/uploads/{filename}", s.ServeUpload)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(s.Config.JWTSecret, s.Log))

			r.Get("/auth/info", s.UserInfo)
			r.Post("/auth/change-password", s.ChangePassword)

			r.Get("/users", s.ListUsers)
			r.Post("/users", s.CreateUser)
			r.Put("/users/{id}", s.UpdateUser)
			r.Post("/users/{id}/reset-password", s.ResetPassword)

			r.Post("/thumbs", s.GiveThumbs)
			r.Get("/thumbs", s.ListThumbs)
			r.Get("/thumbs/stats", s.ThumbsStats)

			r.Post("/products", s.CreateProduct)
			r.Put("/products/{id}", s.UpdateProduct)
			r.Post("/products/{id}/toggle-status", s.ToggleProductStatus)
			r.Delete("/products/{id}", s.DeleteProduct)

			r.Post("/exchanges", s.CreateExchange)
			r.Get("/exchanges", s.ListExchanges)
			r.Post("/exchanges/{id}/cancel", s.CancelExchange)

			r.Get("/stats/dashboard", s.Dashboard)

			r.Post("/upload", s.UploadFile)
		})
	})

	return r
}
