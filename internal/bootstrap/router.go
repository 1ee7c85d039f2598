package bootstrap

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jameskabbes/gallery-api/internal/auth"
	"github.com/jameskabbes/gallery-api/internal/handlers"
	"github.com/jameskabbes/gallery-api/internal/middleware"
)

// setupRouter wires handlers and middleware into the route tree
func setupRouter(app *Application) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	authHandler := handlers.NewAuthHandler(app.AuthService, app.Config)
	userHandler := handlers.NewUserHandler(app.UserService, app.Config)
	apiKeyHandler := handlers.NewAPIKeyHandler(app.APIKeyService, app.AuthService, app.Config)
	galleryHandler := handlers.NewGalleryHandler(app.GalleryService, app.Config)
	fileHandler := handlers.NewFileHandler(app.FileService, app.Config)

	requireAuth := middleware.Authenticate(app.Verifier, app.Config, auth.Options{})
	optionalAuth := middleware.OptionalAuthenticate(app.Verifier, app.Config, auth.Options{})

	rateLimiter, err := middleware.NewRateLimiter(app.Config)
	if err != nil {
		return nil, err
	}

	// Health and metrics
	router.GET("/healthz", func(c *gin.Context) {
		if err := app.DB.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Authentication
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/", requireAuth, authHandler.Root)
		authGroup.POST("/token", authHandler.Token)
		authGroup.POST("/login", authHandler.LoginPassword)
		authGroup.POST("/login/google", authHandler.LoginGoogle)
		authGroup.POST("/login/magic-link", authHandler.LoginMagicLink)
		authGroup.POST("/login/otp/email", authHandler.LoginOTPEmail)
		authGroup.POST("/login/otp/phone", authHandler.LoginOTPPhone)
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/logout", requireAuth, authHandler.Logout)

		// outbound email and SMS behind these, so rate limited per client
		request := authGroup.Group("/request", rateLimiter)
		{
			request.POST("/sign-up", authHandler.RequestSignUp)
			request.POST("/magic-link/email", authHandler.RequestMagicLinkEmail)
			request.POST("/magic-link/sms", authHandler.RequestMagicLinkSMS)
			request.POST("/otp/email", authHandler.RequestOTPEmail)
			request.POST("/otp/sms", authHandler.RequestOTPSMS)
		}
	}

	// Users
	users := router.Group("/users")
	{
		users.GET("/me", requireAuth, userHandler.Me)
		users.PATCH("/me", requireAuth, userHandler.UpdateMe)
		users.DELETE("/me", requireAuth, userHandler.DeleteMe)
		users.GET("/username/:username", userHandler.GetByUsername)
	}

	// API keys and sessions
	apiKeys := router.Group("/api-keys", requireAuth)
	{
		apiKeys.POST("", apiKeyHandler.Create)
		apiKeys.GET("", apiKeyHandler.List)
		apiKeys.GET("/:id", apiKeyHandler.Get)
		apiKeys.PATCH("/:id", apiKeyHandler.Rename)
		apiKeys.DELETE("/:id", apiKeyHandler.Delete)
		apiKeys.GET("/:id/jwt", apiKeyHandler.Reveal)
		apiKeys.POST("/:id/scopes", apiKeyHandler.AddScope)
		apiKeys.DELETE("/:id/scopes/:scope", apiKeyHandler.RemoveScope)
	}
	accessTokens := router.Group("/access-tokens", requireAuth)
	{
		accessTokens.GET("", apiKeyHandler.ListSessions)
		accessTokens.DELETE("/:id", apiKeyHandler.RevokeSession)
	}

	// Galleries
	galleries := router.Group("/galleries")
	{
		galleries.POST("", requireAuth, galleryHandler.Create)
		galleries.GET("", requireAuth, galleryHandler.ListMine)
		galleries.GET("/:id", optionalAuth, galleryHandler.Get)
		galleries.GET("/:id/children", optionalAuth, galleryHandler.ListChildren)
		galleries.PATCH("/:id", requireAuth, galleryHandler.Update)
		galleries.DELETE("/:id", requireAuth, galleryHandler.Delete)
		galleries.GET("/:id/permissions", requireAuth, galleryHandler.ListPermissions)
		galleries.PUT("/:id/permissions", requireAuth, galleryHandler.GrantPermission)
		galleries.DELETE("/:id/permissions/:userID", requireAuth, galleryHandler.RevokePermission)

		galleries.POST("/:id/files", requireAuth, fileHandler.CreateFile)
		galleries.GET("/:id/files", optionalAuth, fileHandler.ListFiles)
		galleries.POST("/:id/image-versions", requireAuth, fileHandler.CreateImageVersion)
		galleries.GET("/:id/image-versions", optionalAuth, fileHandler.ListImageVersions)
	}

	// Files and image versions
	files := router.Group("/files")
	{
		files.GET("/:id", optionalAuth, fileHandler.GetFile)
		files.DELETE("/:id", requireAuth, fileHandler.DeleteFile)
		files.GET("/:id/image-metadata", optionalAuth, fileHandler.GetImageFileMetadata)
		files.PUT("/:id/image-metadata", requireAuth, fileHandler.LinkImageFile)
		files.DELETE("/:id/image-metadata", requireAuth, fileHandler.UnlinkImageFile)
	}
	imageVersions := router.Group("/image-versions")
	{
		imageVersions.PATCH("/:id", requireAuth, fileHandler.UpdateImageVersion)
		imageVersions.DELETE("/:id", requireAuth, fileHandler.DeleteImageVersion)
	}

	return router, nil
}
