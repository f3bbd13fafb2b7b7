// Package api contains all endpoints available
package api

import (
	"bitwise74/room-api/db"
	"bitwise74/room-api/middleware"
	"fmt"
	"time"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Store  db.RoomStore
	Router *gin.Engine
}

func NewRouter() (*API, error) {
	a := &API{}

	rdb, err := db.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis store, %w", err)
	}
	a.Store = db.NewRedisStore(rdb)

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("roomID"); v != "" {
					fields = append(fields, zap.String("roomID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	gate := middleware.NewRoomGateMiddleware(a.Store)
	limiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: viper.GetInt("ratelimit.rps"),
		Burst:             viper.GetInt("ratelimit.burst"),
	})

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// POST /api/rooms 		-> Creates a new room and returns its URL
		main.POST("/rooms", limiter, a.RoomCreate)
	}

	// GET /room/<id> 			-> Room page, guarded by the admission gate.
	// The wildcard keeps deeper paths (/room/x/y) inside the gate so they
	// get redirected home instead of 404ing; everything outside /room/*
	// bypasses the gate entirely.
	router.GET("/room/*roomPath", limiter, gate, a.RoomFetch)

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
