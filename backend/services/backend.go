package services

import (
	"log"
	"meritboard/backend/auth"
	"meritboard/backend/images"
	"meritboard/utils"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Backend struct {
	user    UserService
	catalog CatalogService
	rating  RatingService

	db *gorm.DB
}

func NewBackend(db *gorm.DB, userAuth auth.IdentityProvider, imageStore images.ImageStore) Backend {
	return Backend{
		user:    UserService{db: db, userAuth: userAuth, imageStore: imageStore},
		catalog: CatalogService{db: db, userAuth: userAuth},
		rating:  RatingService{db: db, userAuth: userAuth},
		db:      db,
	}
}

func (b *Backend) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))

	r.Mount("/user", b.user.Routes())
	r.Mount("/event", b.catalog.EventRoutes())
	r.Mount("/criteria", b.catalog.CriteriaRoutes())
	r.Mount("/subcriteria", b.catalog.SubCriteriaRoutes())
	r.Mount("/rating", b.rating.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
