package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/middleware"
	"hotelbooking/internal/modules/admin"
	"hotelbooking/internal/modules/auth"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/modules/payment"
	"hotelbooking/internal/pkg/response"
)

func (a *App) Router() *gin.Engine {
	if a.Config.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(a.Log),
		middleware.Recovery(a.Log),
		middleware.CORS(a.Config.CORSOrigins),
	)

	r.GET("/healthz", a.health)

	authHandler := auth.NewHandler(auth.NewService(a.Users, a.JWT))
	bookingHandler := booking.NewHandler(a.Bookings, a.PaymentRecords)
	paymentHandler := payment.NewHandler(a.Payments, a.Log)
	adminHandler := admin.NewHandler(admin.NewService(a.Hotels, a.Rooms, a.Log))

	v1 := r.Group("/api/v1")
	authHandler.RegisterPublicRoutes(v1)
	bookingHandler.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(a.JWT))
	authHandler.RegisterProtectedRoutes(protected)
	bookingHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)
	adminHandler.RegisterRoutes(protected)

	return r
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, "database unavailable", gin.H{"code": "UNHEALTHY"})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"database": "ok"}, "healthy")
}
