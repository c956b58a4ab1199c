package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/crowdship-backend/internal/config"
	"github.com/ignatzorin/crowdship-backend/internal/domain/valueobject"
	"github.com/ignatzorin/crowdship-backend/internal/http/middleware"
	"github.com/ignatzorin/crowdship-backend/internal/interface/http/handler"
)

// Handlers набор обработчиков API.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Parcel   *handler.ParcelHandler
	Travel   *handler.TravelHandler
	Matching *handler.MatchingHandler
	Match    *handler.MatchHandler
	Payment  *handler.PaymentHandler
	Rating   *handler.RatingHandler
	WS       *handler.WSHandler
	Health   *handler.HealthHandler
}

// authRateLimit отдельный жёсткий лимит на вход и регистрацию.
const authRateLimit = 5

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.AccessParser, redisClient *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimit := func(limit int64, period time.Duration) gin.HandlerFunc {
		if redisClient != nil {
			return middleware.RedisRateLimitMiddleware(redisClient, limit, period)
		}
		return middleware.RateLimitMiddleware(limit, period)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if cfg.Storage.Driver == config.StorageLocal {
		r.StaticFS("/media", http.Dir(cfg.Storage.MediaPath))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(rateLimit(authRateLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	// Публичные профили
	users := api.Group("/users")
	{
		users.GET("/:id", middleware.UUIDValidator("id"), h.User.GetProfile)
		users.GET("/:id/ratings", middleware.UUIDValidator("id"), h.User.ListRatings)
	}

	api.GET("/ws", h.WS.Handle)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	protected.Use(rateLimit(cfg.RateLimitLimit*10, cfg.RateLimitPeriod))
	{
		protected.GET("/me", h.Auth.Me)

		parcels := protected.Group("/parcels")
		{
			parcels.POST("", h.Parcel.CreateParcel)
			parcels.GET("", h.Parcel.ListParcels)
			parcels.GET("/:id", middleware.UUIDValidator("id"), h.Parcel.GetParcel)
			parcels.POST("/:id/cancel", middleware.UUIDValidator("id"), h.Parcel.CancelParcel)
			parcels.POST("/:id/pickup", middleware.UUIDValidator("id"), h.Parcel.PickUpParcel)
			parcels.POST("/:id/deliver", middleware.UUIDValidator("id"), h.Parcel.DeliverParcel)
			parcels.POST("/:id/lost", middleware.UUIDValidator("id"), middleware.RequireRole(valueobject.RoleAdmin), h.Parcel.MarkParcelLost)
			parcels.POST("/:id/tracking", middleware.UUIDValidator("id"), h.Parcel.AddTrackingEvent)
			parcels.POST("/:id/photos", middleware.UUIDValidator("id"), h.Parcel.UploadPhoto)
		}

		travels := protected.Group("/travels")
		{
			travels.POST("", h.Travel.CreateTravel)
			travels.GET("", h.Travel.ListTravels)
			travels.GET("/:id", middleware.UUIDValidator("id"), h.Travel.GetTravel)
			travels.PATCH("/:id/status", middleware.UUIDValidator("id"), h.Travel.UpdateTravelStatus)
		}

		matchingGroup := protected.Group("/matching")
		{
			matchingGroup.GET("", h.Matching.Find)
			matchingGroup.GET("/auto", h.Matching.Suggest)
			matchingGroup.POST("/auto", h.Matching.Propose)
		}

		matches := protected.Group("/matches")
		{
			matches.POST("", h.Match.CreateMatch)
			matches.GET("", h.Match.ListMatches)
			matches.GET("/:id", middleware.UUIDValidator("id"), h.Match.GetMatch)
			matches.POST("/:id/negotiate", middleware.UUIDValidator("id"), h.Match.Negotiate)
			matches.GET("/:id/negotiate", middleware.UUIDValidator("id"), h.Match.GetNegotiation)
			matches.POST("/:id/accept", middleware.UUIDValidator("id"), h.Match.Accept)
			matches.POST("/:id/reject", middleware.UUIDValidator("id"), h.Match.Reject)
			matches.POST("/:id/cancel", middleware.UUIDValidator("id"), h.Match.Cancel)
		}

		payments := protected.Group("/payments")
		{
			payments.GET("", h.Payment.ListPayments)
			payments.GET("/:id", middleware.UUIDValidator("id"), h.Payment.GetPayment)
			payments.POST("/:id/release", middleware.UUIDValidator("id"), h.Payment.Release)
			payments.POST("/:id/refund", middleware.UUIDValidator("id"), h.Payment.Refund)
			payments.POST("/:id/dispute", middleware.UUIDValidator("id"), h.Payment.Dispute)
			payments.POST("/:id/resolve", middleware.UUIDValidator("id"), h.Payment.Resolve)
		}

		ratings := protected.Group("/ratings")
		{
			ratings.POST("", h.Rating.CreateRating)
			ratings.GET("", h.Rating.ListRatings)
		}
	}

	return r
}
