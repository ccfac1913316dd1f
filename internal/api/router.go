package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ravenhq/raven/internal/api/handlers"
	"github.com/ravenhq/raven/internal/api/middleware"
	"github.com/ravenhq/raven/internal/auth"
	"github.com/ravenhq/raven/internal/config"
	"github.com/ravenhq/raven/internal/friends"
	"github.com/ravenhq/raven/internal/houses"
	"github.com/ravenhq/raven/internal/lifecycle"
	"github.com/ravenhq/raven/internal/moderation"
	"github.com/ravenhq/raven/internal/store"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	store    *store.Store
	manager  *lifecycle.Manager
	mod      *moderation.Client
	identity *auth.IdentityMiddleware
}

// NewRouter wires the service graph. The store and dispatcher are chosen by
// the caller (cmd/api) so the same router serves the queue-backed and the
// in-process deployment.
func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, st *store.Store, manager *lifecycle.Manager, mod *moderation.Client) *Router {
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		store:    st,
		manager:  manager,
		mod:      mod,
		identity: auth.NewIdentityMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	friendSvc := friends.NewService(rt.store)
	houseSvc := houses.NewService(rt.store)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.identity.Authenticate)

		msgH := handlers.NewMessageHandler(rt.manager)
		r.Route("/threads/{kind}/{threadID}", func(r chi.Router) {
			r.Get("/messages", msgH.List)
			r.Post("/messages", msgH.Send)
			r.Delete("/messages/{messageID}", msgH.Delete)
			r.Post("/messages/{messageID}/reactions", msgH.React)
		})

		houseH := handlers.NewHouseHandler(houseSvc)
		r.Get("/permissions", houseH.Catalog)
		r.Route("/houses", func(r chi.Router) {
			r.Post("/", houseH.Create)
			r.Get("/", houseH.List)
			r.Get("/{houseID}", houseH.Get)
			r.Post("/{houseID}/join", houseH.Join)
			r.Post("/{houseID}/roles", houseH.AddRole)
			r.Delete("/{houseID}/roles/{roleID}", houseH.DeleteRole)
			r.Post("/{houseID}/roles/{roleID}/toggle", houseH.TogglePermission)
			r.Put("/{houseID}/members/{memberID}/role", houseH.ReassignMember)
		})

		friendH := handlers.NewFriendHandler(friendSvc)
		r.Route("/friends", func(r chi.Router) {
			r.Post("/", friendH.Add)
			r.Get("/", friendH.List)
		})

		modH := handlers.NewModerationHandler(rt.mod, rt.store)
		r.Route("/moderation", func(r chi.Router) {
			r.Post("/classify", modH.Classify)
			r.Get("/log", modH.Log)
		})
	})

	return r
}
