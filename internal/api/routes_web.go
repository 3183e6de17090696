package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lagoon-project/lagoon/internal/util"
)

// handleOnline lists the currently online players.
func (s *Server) handleOnline(c *gin.Context) {
	players := s.bancho.World.Players.All()

	out := make([]gin.H, 0, len(players))
	for _, p := range players {
		if p.Restricted() {
			continue
		}
		st := p.Status()
		out = append(out, gin.H{
			"id":     p.ID,
			"name":   p.DisplayName(),
			"action": st.Action,
			"mode":   st.Mode,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"online":  len(out),
		"players": out,
	})
}

// handleMatches lists the live multiplayer matches. Passwords are never
// exposed here.
func (s *Server) handleMatches(c *gin.Context) {
	matches := s.bancho.World.Matches.All()

	out := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		snap := m.Snapshot()
		out = append(out, gin.H{
			"id":          m.ID,
			"name":        snap.Name,
			"map_name":    snap.MapName,
			"map_id":      snap.MapID,
			"host_id":     snap.HostID,
			"in_progress": snap.InProgress,
			"passworded":  snap.Password != "",
			"players":     len(m.SeatedIDs()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(out),
		"matches": out,
	})
}

// handleStatus reports process and host health.
func (s *Server) handleStatus(c *gin.Context) {
	cpuUsage, _ := util.GetCPUUsage()
	memUsage, _ := util.GetMemoryUsage()

	c.JSON(http.StatusOK, gin.H{
		"uptime_sec":  int(time.Since(s.startedAt).Seconds()),
		"online":      s.bancho.World.Players.Len(),
		"matches":     s.bancho.World.Matches.Len(),
		"groups":      s.bancho.World.Groups.Len(),
		"cpu_percent": cpuUsage,
		"memory":      memUsage,
	})
}
