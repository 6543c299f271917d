package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"mach-lagbe/config"
	"mach-lagbe/controllers"
	"mach-lagbe/middlewares"
	"mach-lagbe/repository"
	"mach-lagbe/services"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config *config.Config
	Log    logrus.FieldLogger
	Store  repository.Store
	Auth   services.IAuthService
	Fish   services.IFishService
	Orders services.IOrderService
	Feed   *controllers.OrderFeed
}

// NewRouter builds the engine with the global middleware chain and every route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.ErrorHandler(d.Log, !d.Config.IsProduction()))
	r.Use(middlewares.PrometheusMiddleware())
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))
	r.Use(middlewares.RequestTimeout(d.Config.RequestTimeout))

	r.NoRoute(middlewares.NotFoundHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	SetupRoutes(r, d)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// SetupRoutes wires health, auth, fish and order routes under /api.
func SetupRoutes(r *gin.Engine, d Deps) {
	health := controllers.NewHealthController(d.Store)
	r.GET("/", health.Index)

	api := r.Group("/api")
	api.GET("/health", health.Health)

	setupAuthRoutes(api, d)
	setupFishRoutes(api, d)
	setupOrderRoutes(api, d)
}

func setupAuthRoutes(api *gin.RouterGroup, d Deps) {
	ctl := controllers.NewAuthController(d.Auth)
	limiter := middlewares.NewRateLimiter(d.Config.AuthRateLimit, d.Config.AuthRateBurst, d.Log)
	requireAuth := middlewares.AuthMiddleware(d.Auth)

	auth := api.Group("/auth")
	{
		auth.POST("/register", limiter.Handler(), ctl.Register)
		auth.POST("/login", limiter.Handler(), ctl.Login)
		auth.GET("/me", requireAuth, ctl.Me)
		auth.POST("/logout", requireAuth, ctl.Logout)
		auth.PUT("/profile", requireAuth, ctl.UpdateProfile)
	}
}

func setupFishRoutes(api *gin.RouterGroup, d Deps) {
	ctl := controllers.NewFishController(d.Fish)
	admin := []gin.HandlerFunc{middlewares.AuthMiddleware(d.Auth), middlewares.RequireAdmin()}

	fish := api.Group("/fish")
	{
		fish.GET("", ctl.List)
		fish.GET("/admin", append(admin, ctl.ListAll)...)
		fish.GET("/:id", ctl.Get)
		fish.POST("", append(admin, ctl.Create)...)
		fish.PUT("/:id", append(admin, ctl.Update)...)
		fish.DELETE("/:id", append(admin, ctl.Delete)...)
	}
}

func setupOrderRoutes(api *gin.RouterGroup, d Deps) {
	ctl := controllers.NewOrderController(d.Orders)

	if d.Feed != nil {
		api.GET("/orders/ws", d.Feed.Handler)
	}

	orders := api.Group("/orders")
	orders.Use(middlewares.AuthMiddleware(d.Auth))
	{
		orders.POST("", ctl.CreateOrder)
		orders.GET("", ctl.GetOrders)
		orders.DELETE("", ctl.DeleteOrders)
		orders.GET("/:id", ctl.GetOrderDetails)
		// Gated before the id and body are parsed so customers always get 403.
		orders.PUT("/:id", middlewares.RequireAdmin(), ctl.UpdateOrderStatus)
		orders.DELETE("/:id", middlewares.RequireAdmin(), ctl.DeleteOrder)
	}
}
