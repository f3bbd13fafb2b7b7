package middleware

import (
	"net/http"
	"regexp"

	"bitwise74/room-api/db"
	"bitwise74/room-api/util"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TokenCookie is the cookie carrying a visitor's identity token.
const TokenCookie = "x-auth-token"

var roomPathRegex = regexp.MustCompile(`^/room/([^/]+)$`)

// MatchRoomID extracts the room id from a request path. Only paths of the
// exact shape /room/<id> with a non-empty id match; anything else
// (including /room/ and deeper paths) is not a room request.
func MatchRoomID(path string) (string, bool) {
	m := roomPathRegex.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// NewRoomGateMiddleware guards the /room/<id> pages. Each request ends up
// in exactly one of: redirect home (not a room path), redirect with
// error=room-not-found, redirect with error=room-full, or pass-through
// with an identity token cookie attached when one was newly minted.
//
// Membership lives in the store, so multiple instances of this service
// can run the gate concurrently. The only mutation is AtomicAdmit, whose
// capacity check and member add happen server-side in one operation.
// That's what keeps a room from ever exceeding its capacity when several
// visitors race for the last free slot.
func NewRoomGateMiddleware(store db.RoomStore) gin.HandlerFunc {
	capacity := viper.GetInt64("room.capacity")
	ttl := viper.GetDuration("room.ttl")
	secure := viper.GetBool("host.ssl.enabled")

	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)
		ctx := c.Request.Context()

		roomID, ok := MatchRoomID(c.Request.URL.Path)
		if !ok {
			c.Redirect(http.StatusTemporaryRedirect, "/")
			c.Abort()
			return
		}

		meta, err := store.GetMetadata(ctx, roomID)
		if err != nil {
			abortStoreFailure(c, requestID, err)
			return
		}

		// A room without metadata doesn't exist, no matter what cookie the
		// client presents or what stale membership might linger for the id
		if meta == nil {
			c.Redirect(http.StatusTemporaryRedirect, "/?error=room-not-found")
			c.Abort()
			return
		}

		c.Set("roomID", roomID)
		c.Set("roomMeta", meta)

		if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
			member, err := store.IsMember(ctx, roomID, token)
			if err != nil {
				abortStoreFailure(c, requestID, err)
				return
			}

			// Already registered, let them back in without touching the store
			if member {
				c.Next()
				return
			}
		}

		// The presented token (if any) isn't a member, so this visitor
		// needs a free slot. Checking before minting saves the entropy
		// read when the room is obviously full.
		count, err := store.Cardinality(ctx, roomID)
		if err != nil {
			abortStoreFailure(c, requestID, err)
			return
		}

		if count >= capacity {
			c.Redirect(http.StatusTemporaryRedirect, "/?error=room-full")
			c.Abort()
			return
		}

		token, err := util.NewToken()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "internal_server_error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to mint identity token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		admitted, err := store.AtomicAdmit(ctx, roomID, token, capacity, ttl)
		if err != nil {
			abortStoreFailure(c, requestID, err)
			return
		}

		// Lost the race for the last slot
		if !admitted {
			c.Redirect(http.StatusTemporaryRedirect, "/?error=room-full")
			c.Abort()
			return
		}

		attachToken(c, token, secure)
		c.Next()
	}
}

func attachToken(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)

	// Session cookie on purpose. Its practical lifetime is bounded by the
	// membership record's TTL, not by cookie expiry.
	c.SetCookie(TokenCookie, token, 0, "/", "", secure, true)
}

// abortStoreFailure surfaces store faults as 500s. Mapping them to
// room-full would mislead both the user and whoever watches the error
// rates for "store is down" vs "rooms are busy".
func abortStoreFailure(c *gin.Context, requestID string, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":     "internal_server_error",
		"requestID": requestID,
	})

	zap.L().Error("Room store request failed", zap.Error(err), zap.String("requestID", requestID))
}
