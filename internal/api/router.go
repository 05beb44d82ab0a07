package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/erazemk/inventario/internal/auth"
	"github.com/erazemk/inventario/internal/inventory"
	"github.com/erazemk/inventario/internal/model"
)

// UserStore persists user accounts. *store.SQLStore implements it.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, role string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CountAdmins(ctx context.Context) (int, error)
	UpdateUser(ctx context.Context, id int64, role string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

// Config holds the router's dependencies.
type Config struct {
	Inventory   *inventory.Service
	Users       UserStore
	Revocations auth.RevocationList
	JWTSecret   string
	// CORSOrigins defaults to every origin when empty.
	CORSOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	authHandler := &AuthHandler{Users: cfg.Users, Revocations: cfg.Revocations, JWTSecret: cfg.JWTSecret}
	usersHandler := &UsersHandler{Users: cfg.Users}
	elementsHandler := &ElementsHandler{Inventory: cfg.Inventory}
	requestsHandler := &RequestsHandler{Inventory: cfg.Inventory}
	ordersHandler := &OrdersHandler{Inventory: cfg.Inventory}
	reportsHandler := &ReportsHandler{Inventory: cfg.Inventory}

	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	r := chi.NewRouter()
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(LoggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		// Public.
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret, cfg.Revocations))

			r.Post("/auth/logout", authHandler.Logout)
			r.Put("/auth/password", authHandler.ChangePassword)

			r.Route("/users", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", usersHandler.List)
				r.Post("/", usersHandler.Create)
				r.Get("/{id}", usersHandler.Get)
				r.Put("/{id}", usersHandler.Update)
				r.Delete("/{id}", usersHandler.Delete)
				r.Put("/{id}/password", usersHandler.ResetPassword)
			})

			// Elements: read (all roles), write (manager+).
			r.Route("/elements", func(r chi.Router) {
				r.Get("/", elementsHandler.List)
				r.With(requireManager).Post("/", elementsHandler.Create)
				r.Get("/{id}", elementsHandler.Get)
				r.With(requireManager).Put("/{id}", elementsHandler.Update)
				r.With(requireManager).Delete("/{id}", elementsHandler.Delete)
				r.With(requireManager).Post("/{id}/restock", elementsHandler.Restock)
				r.With(requireManager).Put("/{id}/image", elementsHandler.UploadImage)
				r.Get("/{id}/image", elementsHandler.GetImage)
			})

			// Requests and orders: any role files and edits them, managers
			// settle and delete them.
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", requestsHandler.List)
				r.Post("/", requestsHandler.Create)
				r.Get("/{id}", requestsHandler.Get)
				r.Put("/{id}", requestsHandler.Update)
				r.With(requireManager).Put("/{id}/status", requestsHandler.SetStatus)
				r.With(requireManager).Delete("/{id}", requestsHandler.Delete)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.List)
				r.Post("/", ordersHandler.Create)
				r.Get("/{id}", ordersHandler.Get)
				r.Put("/{id}", ordersHandler.Update)
				r.With(requireManager).Put("/{id}/status", ordersHandler.SetStatus)
				r.With(requireManager).Delete("/{id}", ordersHandler.Delete)
			})

			r.Get("/dashboard", reportsHandler.Dashboard)
			r.Get("/catalog", reportsHandler.Catalog)
			r.Get("/export/elements.xlsx", reportsHandler.ExportElements)
			r.Get("/export/orders.xlsx", reportsHandler.ExportOrders)
		})
	})

	return r
}
