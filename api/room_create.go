package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RoomCreate mints a fresh room and writes its metadata record. The
// metadata shares the membership TTL, so an unvisited room disappears on
// its own after the window elapses.
func (a *API) RoomCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	roomID, err := gonanoid.New()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "internal_server_error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate room ID", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.Store.CreateRoom(c.Request.Context(), roomID, time.Now(), viper.GetDuration("room.ttl"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "internal_server_error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create room", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"roomID": roomID,
		"url":    "/room/" + roomID,
	})
}
