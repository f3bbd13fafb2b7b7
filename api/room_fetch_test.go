package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bitwise74/room-api/api"
	"bitwise74/room-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomFetchBehindGate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	viper.Set("room.capacity", 2)
	viper.Set("room.ttl", 600*time.Second)
	viper.Set("host.ssl.enabled", false)

	store := newFakeStore()
	store.rooms["r1"] = time.Now()

	r := gin.New()
	r.Use(middleware.NewRequestIDMiddleware())

	a := &api.API{Store: store, Router: r}
	r.GET("/room/*roomPath", middleware.NewRoomGateMiddleware(store), a.RoomFetch)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/room/r1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roomID":"r1"`)
	assert.Contains(t, w.Body.String(), `"members":0`)
	assert.Contains(t, w.Body.String(), `"createdAt"`)
}
