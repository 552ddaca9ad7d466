package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/middleware"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/handler"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/serializer"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

type RouterDeps struct {
	Config             *config.Config
	Log                *zap.Logger
	Auth               middleware.Authenticator
	GameHandler        *handler.GameHandler
	GameVersionHandler *handler.GameVersionHandler
	ProjectHandler     *handler.ProjectHandler
	VersionHandler     *handler.VersionHandler
	ApprovalHandler    *handler.ApprovalHandler
	ModsHandler        *handler.ModsHandler
	UserHandler        *handler.UserHandler
}

// unsanitizedKeys are sanitized by the services with a looser policy or
// hold text where '<' is not markup.
var unsanitizedKeys = []string{"summary", "description", "sv"}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func NewRouter(d RouterDeps) *gin.Engine {
	serializer.SetLogger(d.Log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(d.Config.App.CORSOrigins)))

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(telemetry.GinMiddleware(d.Config.App.Name))
		r.Use(telemetry.TraceIDMiddleware())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	v1 := r.Group("/api/v1")
	v1.Use(middleware.SanitizeInput(bluemonday.StrictPolicy(), unsanitizedKeys...))
	{
		// public reads; a token widens what is visible
		public := v1.Group("", middleware.OptionalUserAuth(d.Auth))
		{
			public.GET("/mods", d.ModsHandler.GetMods)

			public.GET("/games", d.GameHandler.ListGames)
			public.GET("/games/:name", d.GameHandler.GetGame)
			public.GET("/games/:name/versions", d.GameHandler.ListGameVersions)
			public.GET("/gameversions/:id", d.GameVersionHandler.GetGameVersion)

			public.GET("/projects", d.ProjectHandler.ListProjects)
			public.GET("/projects/:id", d.ProjectHandler.GetProject)
			public.GET("/projects/:id/versions", d.ProjectHandler.ListVersions)
			public.GET("/versions/:id", d.VersionHandler.GetVersion)
			public.POST("/versions/:id/download", d.VersionHandler.RecordDownload)

			public.GET("/users/:id", d.UserHandler.GetUser)
		}

		authed := v1.Group("", middleware.UserAuth(d.Auth))
		{
			authed.GET("/me", d.UserHandler.Me)
			authed.POST("/users/:id/token", d.UserHandler.IssueToken)
			authed.PUT("/users/:id/roles", d.UserHandler.SetRoles)

			games := authed.Group("/games")
			{
				games.POST("", d.GameHandler.CreateGame)
				games.DELETE("/:name", d.GameHandler.DeleteGame)
				games.POST("/:name/default", d.GameHandler.SetDefaultGame)
				games.POST("/:name/categories", d.GameHandler.AddCategory)
				games.DELETE("/:name/categories/:category", d.GameHandler.RemoveCategory)
				games.POST("/:name/resort", d.GameHandler.Resort)
			}

			gameVersions := authed.Group("/gameversions")
			{
				gameVersions.POST("", d.GameVersionHandler.CreateGameVersion)
				gameVersions.POST("/:id/default", d.GameVersionHandler.SetDefault)
				gameVersions.POST("/links", d.GameVersionHandler.AddLink)
				gameVersions.DELETE("/links", d.GameVersionHandler.RemoveLink)
			}

			projects := authed.Group("/projects")
			{
				projects.POST("", d.ProjectHandler.CreateProject)
				projects.PATCH("/:id", d.ProjectHandler.EditProject)
				projects.POST("/:id/status", d.ProjectHandler.SetProjectStatus)
				projects.POST("/:id/versions", d.ProjectHandler.CreateVersion)
			}

			versions := authed.Group("/versions")
			{
				versions.PATCH("/:id", d.VersionHandler.EditVersion)
				versions.POST("/:id/status", d.VersionHandler.SetVersionStatus)
			}

			approvals := authed.Group("/approvals")
			{
				approvals.GET("", d.ApprovalHandler.ListPending)
				approvals.POST("/:id/approve", d.ApprovalHandler.Approve)
				approvals.POST("/:id/deny", d.ApprovalHandler.Deny)
			}
		}
	}
	return r
}
