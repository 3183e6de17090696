package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lagoon-project/lagoon/internal/protocol"
)

// maxRequestBody caps a single poll body. Anything larger than this is
// not a legitimate client request.
const maxRequestBody = 4 << 20

const banchoContentType = "application/octet-stream"

// handleBancho is the endpoint the game client polls. A request without
// an osu-token header is a login; everything else is a packet bundle for
// an existing session. Responses are always 200: protocol errors are
// expressed in packets, never in HTTP status codes.
func (s *Server) handleBancho(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		c.Data(http.StatusOK, banchoContentType, nil)
		return
	}

	token := c.GetHeader("osu-token")
	if token == "" {
		newToken, resp := s.bancho.Login(c.Request.Context(), body)
		c.Header("cho-token", newToken)
		c.Data(http.StatusOK, banchoContentType, resp)
		return
	}

	p := s.bancho.World.Players.GetToken(token)
	if p == nil {
		// Stale token from before a restart: tell the client to reconnect.
		resp := protocol.Notification("Server has restarted.")
		resp = append(resp, protocol.Restart(0)...)
		c.Data(http.StatusOK, banchoContentType, resp)
		return
	}

	s.bancho.Process(c.Request.Context(), p, body)
	p.TouchLastRecv()
	c.Data(http.StatusOK, banchoContentType, p.Dequeue())
}

// handleIndex is a human-facing landing page.
func (s *Server) handleIndex(c *gin.Context) {
	srv := s.cfg.GetServerData()
	c.JSON(http.StatusOK, gin.H{
		"name":   srv.Name,
		"online": s.bancho.World.Players.Len(),
	})
}
