package session

import (
	"context"
	"encoding/gob"
	"net/http"

	"auction-house/internal/models"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	cookieName  = "auction-session"
	userIDKey   = "user_id"
	identityKey = "session.identity"
	managerKey  = "session.manager"
)

// Flash message kinds, matching the CSS classes of the layout
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// FlashMessage is a one-shot notice shown on the next rendered page
type FlashMessage struct {
	Type    string
	Message string
}

func init() {
	gob.Register(FlashMessage{})
}

// Resolver maps a stored user id back to a live identity
type Resolver func(ctx context.Context, userID string) (models.Identity, error)

// Manager keeps the signed-in user and flash messages in a signed cookie
type Manager struct {
	store sessions.Store
}

// NewManager returns a Manager backed by a gorilla CookieStore
func NewManager(key []byte, secure bool) *Manager {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// Middleware loads the caller's identity from the session cookie. A cookie that
// no longer matches an account is treated as anonymous.
func (m *Manager) Middleware(resolve Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(managerKey, m)

		sess, err := m.store.Get(c.Request, cookieName)
		if err != nil {
			// tampered or signed with an old key; a fresh session replaces it
			utils.Debug("session: discarding unreadable cookie", map[string]any{"error": err.Error()})
		}

		if userID, ok := sess.Values[userIDKey].(string); ok && userID != "" {
			id, err := resolve(c.Request.Context(), userID)
			if err != nil {
				utils.Error("session: failed to resolve user", map[string]any{"user_id": userID, "error": err.Error()})
			}
			SetIdentity(c, id)
		}

		c.Next()
	}
}

func managerFrom(c *gin.Context) (*Manager, bool) {
	v, ok := c.Get(managerKey)
	if !ok {
		return nil, false
	}
	m, ok := v.(*Manager)
	return m, ok
}

// SetIdentity records the acting user for the rest of the request
func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(identityKey, id)
}

// Identity returns the acting user, anonymous when nobody is signed in
func Identity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{}
}

// SignIn stores id in the session cookie
func SignIn(c *gin.Context, id models.Identity) error {
	m, ok := managerFrom(c)
	if !ok {
		SetIdentity(c, id)
		return nil
	}

	sess, _ := m.store.Get(c.Request, cookieName)
	sess.Values[userIDKey] = id.UserID
	if err := sess.Save(c.Request, c.Writer); err != nil {
		return err
	}
	SetIdentity(c, id)
	return nil
}

// SignOut forgets the signed-in user, keeping pending flash messages
func SignOut(c *gin.Context) error {
	SetIdentity(c, models.Identity{})

	m, ok := managerFrom(c)
	if !ok {
		return nil
	}
	sess, _ := m.store.Get(c.Request, cookieName)
	delete(sess.Values, userIDKey)
	return sess.Save(c.Request, c.Writer)
}

// AddFlash queues a message for the next rendered page
func AddFlash(c *gin.Context, kind, message string) {
	m, ok := managerFrom(c)
	if !ok {
		return
	}
	sess, _ := m.store.Get(c.Request, cookieName)
	sess.AddFlash(FlashMessage{Type: kind, Message: message})
	if err := sess.Save(c.Request, c.Writer); err != nil {
		utils.Error("session: failed to save flash", map[string]any{"error": err.Error()})
	}
}

// Flashes pops the queued messages
func Flashes(c *gin.Context) []FlashMessage {
	m, ok := managerFrom(c)
	if !ok {
		return nil
	}
	sess, _ := m.store.Get(c.Request, cookieName)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}

	messages := make([]FlashMessage, 0, len(raw))
	for _, f := range raw {
		if fm, ok := f.(FlashMessage); ok {
			messages = append(messages, fm)
		}
	}
	if err := sess.Save(c.Request, c.Writer); err != nil {
		utils.Error("session: failed to clear flashes", map[string]any{"error": err.Error()})
	}
	return messages
}
