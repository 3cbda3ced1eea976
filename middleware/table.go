package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys for customer routes
const (
	TableIDKey   = "table_id"
	SessionIDKey = "cart_session_id"
)

// SessionCookie holds the browser's cart session
const SessionCookie = "tableside_session"

const sessionCookieMaxAge = 12 * 60 * 60

// TableCodeDecoder turns the opaque token in customer URLs into a table id
type TableCodeDecoder interface {
	Decode(code string) (uint, error)
}

// TableCode resolves the :tableCode path parameter and stores the table id in the context
func TableCode(decoder TableCodeDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, err := decoder.Decode(c.Param("tableCode"))
		if err != nil {
			abortWithError(c, http.StatusNotFound, "INVALID_TABLE_CODE", "This table link is not valid")
			return
		}
		c.Set(TableIDKey, tableID)
		c.Next()
	}
}

// CartSession gives every browser a session cookie. Carts are keyed by the cookie and the table,
// so one phone moving between tables gets a fresh cart at each.
func CartSession(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, sid, sessionCookieMaxAge, "/", "", secure, true)
		}
		if tableID, ok := GetTableID(c); ok {
			sid = sid + ":" + strconv.FormatUint(uint64(tableID), 10)
		}
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// GetTableID returns the table resolved by TableCode
func GetTableID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(TableIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetSessionID returns the cart session set by CartSession
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
