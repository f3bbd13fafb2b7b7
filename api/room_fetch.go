package api

import (
	"net/http"

	"bitwise74/room-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoomFetch is the pass-through destination behind the admission gate.
// The gate has already resolved the room and admitted the caller, so this
// only decorates the response with the current member count.
func (a *API) RoomFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	roomID := c.MustGet("roomID").(string)
	meta := c.MustGet("roomMeta").(*model.RoomMetadata)

	members, err := a.Store.Cardinality(c.Request.Context(), roomID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "internal_server_error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count room members", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomID":    roomID,
		"createdAt": meta.CreatedAt.Unix(),
		"members":   members,
	})
}
