package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/richmenu-studio/richmenu-backend/internal/users"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxUserDBID    = "user_db_id"
)

// WithUser resolves the request's firebase uid (set by the firebase
// middleware, with an X-User-Id fallback for development), upserts the user
// row and stashes both identifiers in the gin context.
func WithUser(userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := strings.TrimSpace(c.GetString(CtxFirebaseUID))
		if fuid == "" {
			fuid = strings.TrimSpace(c.GetHeader("X-User-Id"))
		}
		if fuid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		uid, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetString("email"),
			DisplayName: c.GetHeader("X-User-Name"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, fuid)
		c.Set(CtxUserDBID, uid)
		c.Next()
	}
}

// UserID returns the database user id set by WithUser.
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}

// UserFirebaseUID returns the firebase uid set by WithUser.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}
