package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig configures the Redis-backed admin session.
type SessionConfig struct {
	Secret            string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "studio.sid"
	SessionRedisPrefix = "studio:session:"
	sessionMaxAge      = 24 * time.Hour

	sessionIDLocal   = "session_id"
	sessionSaveLocal = "session_save"
)

// SessionUser is what the session stores for a signed-in admin.
type SessionUser struct {
	AdminID string `json:"admin_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

type sessionData struct {
	User *SessionUser `json:"user,omitempty"`
}

// Session loads the session named by the signed cookie and saves it back when a handler
// changed it. The cookie value is "<id>.<signature>".
func Session(rdb *redis.Client, cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := verifySessionCookie(c.Cookies(SessionCookieName), cfg.Secret)
		if sessionID != "" {
			b, err := rdb.Get(c.UserContext(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				var data sessionData
				if json.Unmarshal(b, &data) == nil && data.User != nil {
					c.Locals(adminLocal, data.User)
				}
			} else if err != redis.Nil {
				log.Warn().Err(err).Msg("Session lookup failed")
			}
		}
		c.Locals(sessionIDLocal, sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		if save, _ := c.Locals(sessionSaveLocal).(bool); save {
			sid := GetSessionID(c)
			b, _ := json.Marshal(sessionData{User: GetAdmin(c)})
			if err := rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
				log.Error().Err(err).Msg("Session save failed")
			}
		}
		return nil
	}
}

func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// StartSession issues a fresh session for user and sets the cookie.
func StartSession(c *fiber.Ctx, cfg SessionConfig, user SessionUser) {
	sid := uuid.New().String()
	c.Locals(sessionIDLocal, sid)
	c.Locals(adminLocal, &user)
	c.Locals(sessionSaveLocal, true)
	cookie := SessionCookieConfig(cfg)
	cookie.Value = signSessionID(sid, cfg.Secret)
	c.Cookie(&cookie)
}

// DestroySession removes the session from Redis and clears the cookie.
func DestroySession(c *fiber.Ctx, rdb *redis.Client, cfg SessionConfig) error {
	sid := GetSessionID(c)
	c.Locals(adminLocal, nil)
	c.Locals(sessionIDLocal, "")
	cookie := SessionCookieConfig(cfg)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(&cookie)
	if sid == "" {
		return nil
	}
	return rdb.Del(c.UserContext(), SessionRedisPrefix+sid).Err()
}

// SessionCookieConfig returns the cookie flags; Value is filled by the caller.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

func signSessionID(id, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifySessionCookie returns the session id if the signature matches, else "".
func verifySessionCookie(value, secret string) string {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return ""
	}
	id := value[:i]
	if !hmac.Equal([]byte(signSessionID(id, secret)), []byte(value)) {
		return ""
	}
	return id
}
