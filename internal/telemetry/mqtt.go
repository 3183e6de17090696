// Package telemetry publishes server lifecycle events over MQTT.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/lagoon-project/lagoon/internal/config"
	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/util"
)

// MQTT topics.
const (
	TopicServerAdmin  = "lagoon/admin"
	TopicServerStatus = "lagoon/status"
	TopicSessions     = "lagoon/sessions"
	TopicMatches      = "lagoon/matches"
	TopicGroups       = "lagoon/groups"
)

// MQTTHandler manages the MQTT connection and publishes telemetry events.
type MQTTHandler struct {
	mu sync.Mutex

	cfg      *config.Config
	eventBus *events.EventBus
	client   mqtt.Client

	// Metadata included in every message
	metadata map[string]interface{}
}

// NewMQTTHandler creates a new MQTT telemetry handler.
func NewMQTTHandler(cfg *config.Config, eventBus *events.EventBus) (*MQTTHandler, error) {
	mqttCfg := cfg.GetApplicationData().MQTT

	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT is disabled")
	}

	sysInfo := util.GetSystemInfo()
	metadata := map[string]interface{}{
		"hostname":  sysInfo.Hostname,
		"os":        sysInfo.OS,
		"cpu_model": sysInfo.CPUModel,
		"cpu_cores": sysInfo.CPUCores,
		"memory_mb": sysInfo.TotalMemory,
		"server":    cfg.GetServerData().Name,
	}

	handler := &MQTTHandler{
		cfg:      cfg,
		eventBus: eventBus,
		metadata: metadata,
	}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if mqttCfg.UseTLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, mqttCfg.BrokerURL, mqttCfg.Port))

	if mqttCfg.ClientID != "" {
		opts.SetClientID(mqttCfg.ClientID)
	} else {
		opts.SetClientID(fmt.Sprintf("lagoon-%s", sysInfo.Hostname))
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false)

	if mqttCfg.UseTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		if mqttCfg.CertFile != "" && mqttCfg.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(mqttCfg.CertFile, mqttCfg.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load MQTT TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
		opts.SetTLSConfig(tlsConfig)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Msg("MQTT connected")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	handler.client = mqtt.NewClient(opts)

	return handler, nil
}

// Start connects to the MQTT broker and subscribes to events.
func (h *MQTTHandler) Start(ctx context.Context) error {
	mqttCfg := h.cfg.GetApplicationData().MQTT
	log.Info().
		Str("broker", mqttCfg.BrokerURL).
		Int("port", mqttCfg.Port).
		Msg("connecting to MQTT broker")

	token := h.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect failed: %w", token.Error())
	}

	h.subscribeEvents()

	<-ctx.Done()

	h.PublishShutdown()
	h.client.Disconnect(5000)
	log.Info().Msg("MQTT disconnected")

	return nil
}

// subscribeEvents registers event handlers for MQTT publishing.
func (h *MQTTHandler) subscribeEvents() {
	h.eventBus.Subscribe(events.EventPlayerLogin, "mqtt.playerLogin", h.onSessionEvent("login"))
	h.eventBus.Subscribe(events.EventPlayerLogout, "mqtt.playerLogout", h.onSessionEvent("logout"))
	h.eventBus.Subscribe(events.EventSessionExpired, "mqtt.sessionExpired", h.onSessionEvent("expired"))
	h.eventBus.Subscribe(events.EventMatchCreated, "mqtt.matchCreated", h.onMatchEvent("created"))
	h.eventBus.Subscribe(events.EventMatchStarted, "mqtt.matchStarted", h.onMatchEvent("started"))
	h.eventBus.Subscribe(events.EventMatchFinished, "mqtt.matchFinished", h.onMatchEvent("finished"))
	h.eventBus.Subscribe(events.EventMatchDisposed, "mqtt.matchDisposed", h.onMatchEvent("disposed"))
	h.eventBus.Subscribe(events.EventGroupCreated, "mqtt.groupCreated", h.onGroupEvent("created"))
	h.eventBus.Subscribe(events.EventGroupDisbanded, "mqtt.groupDisbanded", h.onGroupEvent("disbanded"))
	h.eventBus.Subscribe(events.EventNotifyMQTT, "mqtt.notify", h.onNotify)
}

// publish sends a JSON message to an MQTT topic.
func (h *MQTTHandler) publish(topic string, payload interface{}) {
	if !h.client.IsConnected() {
		return
	}

	msg := h.buildMessage(payload)

	data, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("failed to marshal MQTT message")
		return
	}

	token := h.client.Publish(topic, 1, false, data) // QoS 1
	go func() {
		token.Wait()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// buildMessage combines metadata with the event payload.
func (h *MQTTHandler) buildMessage(payload interface{}) map[string]interface{} {
	msg := make(map[string]interface{})

	for k, v := range h.metadata {
		msg[k] = v
	}

	msg["payload"] = payload
	msg["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	return msg
}

func (h *MQTTHandler) onSessionEvent(kind string) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		h.publish(TopicSessions, map[string]interface{}{
			"event":   kind,
			"payload": event.Payload,
		})
		return nil
	}
}

func (h *MQTTHandler) onMatchEvent(kind string) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		h.publish(TopicMatches, map[string]interface{}{
			"event":   kind,
			"payload": event.Payload,
		})
		return nil
	}
}

func (h *MQTTHandler) onGroupEvent(kind string) events.HandlerFunc {
	return func(ctx context.Context, event events.Event) error {
		h.publish(TopicGroups, map[string]interface{}{
			"event":   kind,
			"payload": event.Payload,
		})
		return nil
	}
}

func (h *MQTTHandler) onNotify(ctx context.Context, event events.Event) error {
	h.publish(TopicServerStatus, event.Payload)
	return nil
}

// PublishStatus sends a periodic status snapshot.
func (h *MQTTHandler) PublishStatus(online, matches, groups int) {
	h.publish(TopicServerStatus, map[string]interface{}{
		"online":  online,
		"matches": matches,
		"groups":  groups,
	})
}

// PublishShutdown sends a shutdown message to the MQTT broker.
func (h *MQTTHandler) PublishShutdown() {
	h.publish(TopicServerAdmin, map[string]interface{}{
		"event":     "shutdown",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
