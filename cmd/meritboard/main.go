package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"meritboard/backend/auth"
	"meritboard/backend/config"
	"meritboard/backend/images"
	"meritboard/backend/schema"
	"meritboard/backend/services"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	slogmulti "github.com/samber/slog-multi"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type meritboardEnv struct {
	DatabaseUri string `env:"DATABASE_URI,required"`
	JwtSecret   string `env:"JWT_SECRET,required"`

	PublicHostname string `env:"PUBLIC_HOSTNAME" envDefault:"localhost"`
	LogDir         string `env:"LOG_DIR" envDefault:"./logs"`

	AdminFirstName string `env:"ADMIN_FIRST_NAME" envDefault:"admin"`
	AdminLastName  string `env:"ADMIN_LAST_NAME" envDefault:"admin"`
	AdminEmail     string `env:"ADMIN_EMAIL,required"`
	AdminPassword  string `env:"ADMIN_PASSWORD,required"`

	IdentityProvider      string `env:"IDENTITY_PROVIDER" envDefault:"basic"`
	KeycloakServerUrl     string `env:"KEYCLOAK_SERVER_URL"`
	KeycloakAdminUsername string `env:"KEYCLOAK_ADMIN_USER"`
	KeycloakAdminPassword string `env:"KEYCLOAK_ADMIN_PASSWORD"`
	UseSslInLogin         bool   `env:"USE_SSL_IN_LOGIN"`
	SslCertFile           string `env:"SSL_CERT_FILE"`
	SslKeyFile            string `env:"SSL_KEY_FILE"`

	ImageHostApiKey string `env:"IMAGE_HOST_API_KEY"`
}

func loadEnv() (*meritboardEnv, error) {
	cfg := &meritboardEnv{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.IdentityProvider != "basic" && cfg.IdentityProvider != "keycloak" {
		return nil, fmt.Errorf("invalid identity provider '%v', must be 'basic' or 'keycloak'", cfg.IdentityProvider)
	}
	return cfg, nil
}

func (e *meritboardEnv) postgresDsn() string {
	parts, err := url.Parse(e.DatabaseUri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func initLogging(logFile *os.File) {
	jsonHandler := slog.NewJSONHandler(logFile, nil).
		WithAttrs([]slog.Attr{slog.String("service", "meritboard")})
	textHandler := slog.NewTextHandler(os.Stderr, nil)

	slog.SetDefault(slog.New(slogmulti.Fanout(jsonHandler, textHandler)))
	slog.Info("logging initialized", "log_file", logFile.Name())
}

func initDb(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	if err := db.AutoMigrate(schema.Entities()...); err != nil {
		log.Fatalf("error migrating db schema: %v", err)
	}

	return db
}

func newImageStore(cfg config.ImageHostConfig, apiKey string) images.ImageStore {
	if cfg.Provider == "http" {
		return images.NewHttpStore(cfg.Addr, apiKey)
	}

	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		log.Fatalf("error creating image dir: %v", err)
	}
	return images.NewDiskStore(cfg.BasePath, cfg.BaseUrl)
}

func newIdentityProvider(env *meritboardEnv, db *gorm.DB, auditLog auth.AuditLogger) auth.IdentityProvider {
	if env.IdentityProvider == "keycloak" {
		provider, err := auth.NewKeycloakIdentityProvider(db, auditLog, auth.KeycloakArgs{
			KeycloakServerUrl:     env.KeycloakServerUrl,
			KeycloakAdminUsername: env.KeycloakAdminUsername,
			KeycloakAdminPassword: env.KeycloakAdminPassword,
			AdminFirstName:        env.AdminFirstName,
			AdminLastName:         env.AdminLastName,
			AdminEmail:            env.AdminEmail,
			AdminPassword:         env.AdminPassword,
			PublicHostname:        env.PublicHostname,
			SslLogin:              env.UseSslInLogin,
			CertFile:              env.SslCertFile,
			KeyFile:               env.SslKeyFile,
		})
		if err != nil {
			log.Fatalf("error creating keycloak identity provider: %v", err)
		}
		return provider
	}

	provider, err := auth.NewBasicIdentityProvider(db, auditLog, auth.BasicProviderArgs{
		Secret:         []byte(env.JwtSecret),
		AdminFirstName: env.AdminFirstName,
		AdminLastName:  env.AdminLastName,
		AdminEmail:     env.AdminEmail,
		AdminPassword:  env.AdminPassword,
	})
	if err != nil {
		log.Fatalf("error creating basic identity provider: %v", err)
	}
	return provider
}

func main() {
	envFile := flag.String("env", "", "File to load env variables from. If not specified will just load them from the environment variables already defined.")
	configPath := flag.String("config", "", "Path to the server config file. Defaults are used if not specified.")
	port := flag.Int("port", 8000, "Port to run server on")

	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("error loading env file '%v': %v", *envFile, err)
		}
	}

	env, err := loadEnv()
	if err != nil {
		log.Fatalf("error loading environment variables: %v", err)
	}

	serverConfig := config.Default()
	if *configPath != "" {
		serverConfig, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("error loading config file '%v': %v", *configPath, err)
		}
	}

	if err := os.MkdirAll(env.LogDir, 0777); err != nil {
		log.Fatalf("error creating log dir: %v", err)
	}

	logFile, err := os.OpenFile(filepath.Join(env.LogDir, "meritboard.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()

	auditLog, err := os.OpenFile(filepath.Join(env.LogDir, "audit.log"), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0666)
	if err != nil {
		log.Fatalf("error opening audit log file: %v", err)
	}
	defer auditLog.Close()

	initLogging(logFile)

	db := initDb(env.postgresDsn())

	imageStore := newImageStore(serverConfig.ImageHost, env.ImageHostApiKey)
	identityProvider := newIdentityProvider(env, db, auth.NewAuditLogger(auditLog))

	backend := services.NewBackend(db, identityProvider, imageStore)

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   serverConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/api/v1", backend.Routes())

	if diskStore, ok := imageStore.(*images.DiskImageStore); ok {
		mount := strings.TrimSuffix(serverConfig.ImageHost.BaseUrl, "/")
		fileServer := http.StripPrefix(mount, http.FileServer(http.Dir(diskStore.Location())))
		r.Get(mount+"/*", fileServer.ServeHTTP)
	}

	slog.Info("starting server", "port", *port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), r); err != nil {
		log.Fatalf("listen and serve returned error: %v", err)
	}
}
