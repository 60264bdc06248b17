package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"metro-status-backend/internal/mw"
	"metro-status-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(10), 5)

	cacheStore := cache.New(1*time.Minute, 10*time.Minute)
	caching := mw.Cache(cacheStore, 1*time.Minute)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/units", caching, handler.ListUnits)
		api.GET("/units/:unit_id", caching, handler.GetUnit)
		api.GET("/updates", caching, handler.RecentUpdates)

		api.GET("/hotcars", caching, handler.RecentHotCars)
		api.GET("/hotcars/:car_number", caching, handler.HotCarsForCar)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
