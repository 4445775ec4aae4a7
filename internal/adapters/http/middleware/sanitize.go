package middleware

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/sanitize"
)

// secretFields are compared or hashed, never rendered, and pass through untouched
var secretFields = map[string]bool{
	"password":    true,
	"newPassword": true,
	"token":       true,
}

// Sanitize strips markup from JSON body strings and query values and drops
// keys that look like query operators.
func Sanitize(auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var removed []string

		// 1. Query string
		args := c.Request().URI().QueryArgs()
		type pair struct{ key, value string }
		var query []pair
		dirty := false
		args.VisitAll(func(k, v []byte) {
			key, value := string(k), string(v)
			if sanitize.IsOperatorKey(key) {
				removed = append(removed, key)
				dirty = true
				return
			}
			clean := sanitize.String(value)
			if clean != value {
				dirty = true
			}
			query = append(query, pair{key, clean})
		})
		if dirty {
			args.Reset()
			for _, q := range query {
				args.Add(q.key, q.value)
			}
		}

		// 2. JSON body
		body := c.Body()
		if len(bytes.TrimSpace(body)) > 0 && strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			var payload any
			if err := dec.Decode(&payload); err != nil {
				return response.BadRequest(c, response.CodeValidation, "Malformed JSON body")
			}

			secrets := map[string]any{}
			if m, ok := payload.(map[string]any); ok {
				for k := range secretFields {
					if v, ok := m[k]; ok {
						secrets[k] = v
						delete(m, k)
					}
				}
			}

			clean, dropped := sanitize.Value(payload)
			removed = append(removed, dropped...)
			if m, ok := clean.(map[string]any); ok {
				for k, v := range secrets {
					m[k] = v
				}
			}

			out, err := json.Marshal(clean)
			if err != nil {
				return response.BadRequest(c, response.CodeValidation, "Malformed JSON body")
			}
			c.Request().SetBody(out)
		}

		if len(removed) > 0 {
			auditLog.Log(c.UserContext(), audit.Event{
				Type:      audit.SuspiciousActivity,
				IP:        c.IP(),
				UserAgent: c.Get(fiber.HeaderUserAgent),
				Details:   map[string]any{"path": c.Path(), "removedKeys": removed},
			})
		}
		return c.Next()
	}
}
