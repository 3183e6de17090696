// Package events defines event types and enumerations for the Lagoon event system.
package events

// EventType represents the type of event emitted through the EventBus.
type EventType string

const (
	// Session lifecycle events
	EventPlayerLogin      EventType = "player_login"
	EventPlayerLogout     EventType = "player_logout"
	EventSessionExpired   EventType = "session_expired"
	EventPlayerRestricted EventType = "player_restricted"

	// Match lifecycle events
	EventMatchCreated  EventType = "match_created"
	EventMatchStarted  EventType = "match_started"
	EventMatchFinished EventType = "match_finished"
	EventMatchDisposed EventType = "match_disposed"

	// Group lifecycle events
	EventGroupCreated   EventType = "group_created"
	EventGroupDisbanded EventType = "group_disbanded"

	// Notification events
	EventNotifyMQTT EventType = "notify_mqtt"

	// System events
	EventConfigChanged EventType = "config_changed"
	EventShutdown      EventType = "shutdown"
)

// Event represents a single event in the system.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// PlayerSessionPayload carries session lifecycle data.
type PlayerSessionPayload struct {
	PlayerID int32  `json:"player_id"`
	Name     string `json:"name"`
	Token    string `json:"token,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// MatchPayload carries match lifecycle data.
type MatchPayload struct {
	MatchID int32  `json:"match_id"`
	Name    string `json:"name"`
	HostID  int32  `json:"host_id"`
	Players int    `json:"players"`
}

// GroupPayload carries group lifecycle data.
type GroupPayload struct {
	Token   string `json:"token"`
	LeadID  int32  `json:"lead_id"`
	Members int    `json:"members"`
}

// ConfigChangedPayload is emitted when configuration changes occur.
type ConfigChangedPayload struct {
	Section string
	Key     string
	Value   interface{}
}
