package bootstrap

import (
	"net/http"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/config"
	"github.com/jameskabbes/gallery-api/internal/mailer"
	"github.com/jameskabbes/gallery-api/internal/metrics"
	"github.com/jameskabbes/gallery-api/internal/services"
	"github.com/jameskabbes/gallery-api/internal/store"
	"github.com/jameskabbes/gallery-api/internal/token"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB       *store.Store
	Codec    *token.Codec
	Verifier *auth.Verifier
	Metrics  *metrics.Metrics
	Mailer   mailer.Mailer

	// Services
	UserService       *services.UserService
	CredentialService *services.CredentialService
	AuthService       *services.AuthService
	APIKeyService     *services.APIKeyService
	GalleryService    *services.GalleryService
	FileService       *services.FileService

	// HTTP
	Router *gin.Engine
	Server *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	if err := app.initializeInfrastructure(); err != nil {
		return err
	}
	app.initializeBusinessLayer()
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}
	app.startWithGracefulShutdown()
	return nil
}

// initializeInfrastructure sets up the database, token codec, metrics and
// delivery backend
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = store.New(app.Config)
	if err != nil {
		return err
	}

	app.Codec = token.NewCodec(app.Config.JWTSecret)
	app.Metrics = metrics.New(prometheus.DefaultRegisterer)
	app.Verifier = auth.NewVerifier(app.DB, app.Config, app.Codec, app.Metrics)
	app.Mailer = mailer.NewLogMailer()

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	app.UserService = services.NewUserService(app.DB, app.Config)
	app.CredentialService = services.NewCredentialService(app.DB, app.Config, app.Codec, app.Metrics)

	var google services.GoogleVerifier
	if app.Config.GoogleClientID != "" {
		google = services.NewGoogleVerifier(app.Config.GoogleClientID)
	}

	app.AuthService = services.NewAuthService(
		app.DB,
		app.Config,
		app.UserService,
		app.CredentialService,
		app.Verifier,
		app.Mailer,
		app.Metrics,
		google,
	)
	app.APIKeyService = services.NewAPIKeyService(app.DB, app.Config, app.CredentialService)
	app.GalleryService = services.NewGalleryService(app.DB, app.Config)
	app.FileService = services.NewFileService(app.DB, app.GalleryService)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	router, err := setupRouter(app)
	if err != nil {
		return err
	}
	app.Router = router
	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addCredentialCleanupJob(m, app.DB)

	<-m.Done()
}
