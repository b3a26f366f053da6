package router

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"adoption-manager/internal/adapters/notify/eventbus"
	mem "adoption-manager/internal/adapters/storage/memory"
	pg "adoption-manager/internal/adapters/storage/postgres"
	"adoption-manager/internal/domain/adoptions"
	"adoption-manager/internal/domain/animals"
	"adoption-manager/internal/domain/catalog"
	"adoption-manager/internal/domain/followups"
	"adoption-manager/internal/domain/orgs"
	"adoption-manager/internal/domain/users"
	"adoption-manager/internal/middleware"
	"adoption-manager/internal/platform/logger"
	"adoption-manager/internal/ports/auth"

	caproles "adoption-manager/internal/adapters/capabilities/roles"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev: headers X-Debug-*)

	// Opcional: si viene DB, usa Postgres. Si no, in-memory (Store
	// permite seedear desde tests/dev; nil crea uno vacío).
	DB    *sql.DB
	Store *mem.Store

	// Opcional: bus de alertas. Si es nil se arma un GoChannel local.
	Publisher message.Publisher

	// Opcional: cache de catálogos (nil lee directo del repo).
	Cache catalog.Cache

	Log logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	var (
		adoptionRepo adoptions.Repository
		followUpRepo followups.Repository
		animalRepo   animals.Repository
		userRepo     users.Repository
		orgRepo      orgs.Repository
		catalogRepo  catalog.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil && opts.Store == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		adoptionRepo = pg.NewAdoptionsRepo(db)
		followUpRepo = pg.NewFollowUpsRepo(db)
		animalRepo = pg.NewAnimalsRepo(db)
		userRepo = pg.NewUsersRepo(db)
		orgRepo = pg.NewOrgsRepo(db)
		catalogRepo = pg.NewCatalogRepo(db)
	} else {
		store := opts.Store
		if store == nil {
			store = mem.NewStore()
		}
		adoptionRepo = store.Adoptions()
		followUpRepo = store.FollowUps()
		animalRepo = store.Animals()
		userRepo = store.Users()
		orgRepo = store.Orgs()
		catalogRepo = store.Catalog()
	}

	busPub := opts.Publisher
	if busPub == nil {
		busPub = eventbus.NewGoChannel(nil)
	}
	publisher := eventbus.New(busPub)

	// Services por módulo
	catalogSvc := catalog.NewService(catalogRepo, opts.Cache)
	adoptionsSvc := adoptions.NewService(adoptionRepo, animalRepo, userRepo, publisher, log)
	followUpsSvc := followups.NewService(followUpRepo, adoptionsSvc, catalogSvc)

	scopes := caproles.NewResolver(orgRepo)

	// Rutas por módulo
	adoptions.RegisterRoutes(r, adoptionsSvc, catalogSvc, scopes)
	followups.RegisterRoutes(r, followUpsSvc, catalogSvc, scopes)

	return r
}
