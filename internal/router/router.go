package router

import (
	"time"

	"github.com/eventease-dev/eventease/internal/handlers"
	"github.com/eventease-dev/eventease/internal/logging"
	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/eventease-dev/eventease/internal/middleware"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()

	r.Use(logging.GinRecovery(h.Logger))
	r.Use(logging.GinLogger(h.Logger))
	r.Use(metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins(h.Config.PublicURL, h.Config.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.MaxMultipartMemory = h.Config.UploadMaxBytes
	if h.Images != nil {
		r.Static("/static", h.Images.Root())
	}

	requireAuth := middleware.AuthMiddleware(h.DB)
	optionalAuth := middleware.OptionalAuthMiddleware(h.DB)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/health/ready", h.ReadinessCheck)
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))
		api.GET("/ws/events/:event_id", requireAuth, h.EventSocket)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", requireAuth, h.Logout)
			auth.POST("/password-reset/request", h.RequestPasswordReset)
			auth.POST("/password-reset/:token", h.ResetPassword)
			auth.POST("/password/change", requireAuth, h.ChangePassword)
			auth.GET("/account-status", requireAuth, h.AccountStatus)
			auth.GET("/verify-email/:token", h.VerifyEmail)
			auth.POST("/resend-verification", h.ResendVerification)
			auth.GET("/me", requireAuth, h.Me)
		}

		users := api.Group("/users/me", requireAuth)
		{
			users.GET("/profile", h.GetProfile)
			users.PUT("/profile", h.UpdateProfile)
		}

		friends := api.Group("/friends", requireAuth)
		{
			friends.GET("", h.ListFriends)
			friends.POST("", h.AddFriend)
			friends.DELETE("", h.RemoveFriend)
		}

		events := api.Group("/events", requireAuth)
		{
			events.GET("", h.ListEvents)
			events.POST("", h.CreateEvent)
			events.GET("/:event_id/checklist", h.GetChecklist)
			events.PATCH("/:event_id/name", h.RenameEvent)
			events.PATCH("/:event_id/date", h.RedateEvent)
			events.DELETE("/:event_id", h.DeleteEvent)
			events.POST("/:event_id/participants", h.UpdateParticipants)
			events.POST("/:event_id/ownership", h.TransferOwnership)
			events.POST("/:event_id/strict-mode", h.SetStrictMode)
			events.PUT("/:event_id/webhooks", h.UpdateWebhooks)
			events.POST("/:event_id/tasks/completion", h.BulkSetCompletion)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.POST("", h.CreateTask)
			tasks.PUT("/:task_id", h.UpdateTask)
			tasks.DELETE("/:task_id", h.DeleteTask)
			tasks.PATCH("/:task_id/completion", h.SetTaskCompletion)
			tasks.POST("/:task_id/assignees", h.AssignTask)
			tasks.POST("/:task_id/verify-image", h.VerifyTaskImage)
			tasks.POST("/:task_id/bypass-item", h.BypassItem)
			tasks.POST("/:task_id/verify", h.VerifyTask)
		}

		chatbot := api.Group("/chatbot")
		{
			chatbot.POST("/conversation", requireAuth, h.Conversation)
			chatbot.POST("/chat", optionalAuth, h.Chat)
		}

		media := api.Group("/media", requireAuth)
		{
			media.POST("/translate", h.Translate)
			media.POST("/speak", h.Speak)
		}

		api.GET("/calendar.ics", requireAuth, h.Calendar)
	}

	return r
}
