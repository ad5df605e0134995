package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the surface-level knobs the HTTP layer needs.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
}

type Handlers struct {
	Trips    *TripHandler
	Offers   *OfferHandler
	Direct   *DirectHandler
	Bookings *BookingHandler
	Matching *MatchingHandler
}

// NewRouter assembles the gin engine: recovery, request tagging, CORS, and
// the authenticated v1 route groups.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), RequestID())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1", Auth(cfg.JWTSecret))

	tripsGroup := v1.Group("/trips")
	h.Trips.Register(tripsGroup)
	h.Offers.Register(tripsGroup)
	h.Direct.Register(tripsGroup)

	h.Bookings.Register(v1.Group("/bookings"))
	h.Matching.Register(v1.Group("/matching"))

	return router
}
