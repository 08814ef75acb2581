package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/medisetu/dispatch/core/logger"
	infralogger "github.com/medisetu/dispatch/infra/logger"
)

// MQTTConfig defines the connection parameters for the driver order channel.
type MQTTConfig struct {
	Broker            string `json:"broker"`
	ClientID          string `json:"client_id"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	OrderTopicPrefix  string `json:"order_topic_prefix"`
	AckTopic          string `json:"ack_topic"`
	QoS               byte   `json:"qos"`
	AckTimeoutSeconds int    `json:"ack_timeout_seconds"`
}

// SetDefaults fills unset fields with the documented defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.OrderTopicPrefix == "" {
		c.OrderTopicPrefix = "dispatch/orders/"
	}
	if c.AckTopic == "" {
		c.AckTopic = "dispatch/acks"
	}
	if c.AckTimeoutSeconds == 0 {
		c.AckTimeoutSeconds = 5
	}
}

// pahoClient is the subset of the Paho client the notifier uses; tests swap
// it for a fake.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTNotifier publishes dispatch orders to each driver's app over MQTT and
// waits (bounded) for an acknowledgment on the shared ack topic.
type MQTTNotifier struct {
	cli        pahoClient
	cfg        MQTTConfig
	log        logger.Logger
	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	ackTimeout time.Duration
}

// NewMQTTNotifier connects to the broker and subscribes to the ack topic.
func NewMQTTNotifier(cfg MQTTConfig) (*MQTTNotifier, error) {
	cfg.SetDefaults()
	log := infralogger.New("mqtt-notifier")
	n := &MQTTNotifier{
		cfg:        cfg,
		log:        log,
		ackChans:   make(map[string]chan struct{}),
		ackTimeout: time.Duration(cfg.AckTimeoutSeconds) * time.Second,
	}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetResumeSubs(true)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Infof("MQTT connected")
	if token := c.Subscribe(cfg.AckTopic, cfg.QoS, n.onAck); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", cfg.AckTopic, token.Error())
	}
	n.cli = c
	return n, nil
}

type order struct {
	CommandID string `json:"command_id"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	SentAt    string `json:"sent_at"`
}

type ack struct {
	CommandID string `json:"command_id"`
}

// SendAlert publishes the order and waits for the driver app to acknowledge.
// A missing ack within the timeout is an error; the fan-out logs it and moves
// on.
func (n *MQTTNotifier) SendAlert(ctx context.Context, phone, message string) error {
	cmdID := uuid.NewString()
	payload, err := json.Marshal(order{
		CommandID: cmdID,
		Phone:     phone,
		Message:   message,
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.ackChans[cmdID] = ch
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.ackChans, cmdID)
		n.mu.Unlock()
	}()

	topic := n.cfg.OrderTopicPrefix + phone
	if token := n.cli.Publish(topic, n.cfg.QoS, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish order: %w", token.Error())
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.ackTimeout):
		return fmt.Errorf("no ack for order %s within %s", cmdID, n.ackTimeout)
	}
}

func (n *MQTTNotifier) onAck(_ paho.Client, msg paho.Message) {
	var a ack
	if err := json.Unmarshal(msg.Payload(), &a); err != nil {
		n.log.Errorf("malformed ack: %v", err)
		return
	}
	n.mu.Lock()
	ch, ok := n.ackChans[a.CommandID]
	n.mu.Unlock()
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.cli != nil && n.cli.IsConnected() {
		n.cli.Disconnect(250)
	}
}
