package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisetu/dispatch/infra/logger"
)

func TestSMSNotifierPosts(t *testing.T) {
	var got smsPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewSMSNotifier(SMSConfig{GatewayURL: srv.URL, APIKey: "k1"}, logger.NopLogger{})
	err := n.SendAlert(context.Background(), "+911234", "help is coming")
	require.NoError(t, err)
	assert.Equal(t, "+911234", got.To)
	assert.Equal(t, "help is coming", got.Message)
	assert.Equal(t, "Bearer k1", auth)
}

func TestSMSNotifierGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewSMSNotifier(SMSConfig{GatewayURL: srv.URL}, logger.NopLogger{})
	err := n.SendAlert(context.Background(), "+911234", "msg")
	assert.Error(t, err)
}

// mockClient implements pahoClient for tests.
type mockClient struct {
	opts *paho.ClientOptions
	mu   sync.Mutex
	pubs []struct {
		topic   string
		payload []byte
	}
	publishErr error
	ackHandler paho.MessageHandler
	autoAck    bool
}

func (m *mockClient) IsConnected() bool   { return true }
func (m *mockClient) Connect() paho.Token { return dummyToken{} }
func (m *mockClient) Disconnect(uint)     {}
func (m *mockClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	m.mu.Lock()
	b := payload.([]byte)
	m.pubs = append(m.pubs, struct {
		topic   string
		payload []byte
	}{topic, b})
	err := m.publishErr
	handler := m.ackHandler
	auto := m.autoAck
	m.mu.Unlock()
	if err != nil {
		return dummyToken{err: err}
	}
	if auto && handler != nil {
		var o order
		if jerr := json.Unmarshal(b, &o); jerr == nil {
			ackBody, _ := json.Marshal(ack{CommandID: o.CommandID})
			go handler(nil, mockMessage{p: ackBody})
		}
	}
	return dummyToken{}
}
func (m *mockClient) Subscribe(_ string, _ byte, cb paho.MessageHandler) paho.Token {
	m.mu.Lock()
	m.ackHandler = cb
	m.mu.Unlock()
	return dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestMQTTNotifierAckedOrder(t *testing.T) {
	mc := &mockClient{autoAck: true}
	withMockClient(t, mc)

	n, err := NewMQTTNotifier(MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test"})
	require.NoError(t, err)
	defer n.Close()

	err = n.SendAlert(context.Background(), "+919", "pick up patient")
	require.NoError(t, err)
	require.Len(t, mc.pubs, 1)
	assert.Equal(t, "dispatch/orders/+919", mc.pubs[0].topic)

	var o order
	require.NoError(t, json.Unmarshal(mc.pubs[0].payload, &o))
	assert.Equal(t, "pick up patient", o.Message)
	assert.NotEmpty(t, o.CommandID)
}

func TestMQTTNotifierAckTimeout(t *testing.T) {
	mc := &mockClient{autoAck: false}
	withMockClient(t, mc)

	n, err := NewMQTTNotifier(MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test"})
	require.NoError(t, err)
	defer n.Close()
	n.ackTimeout = 20 * time.Millisecond

	err = n.SendAlert(context.Background(), "+919", "msg")
	assert.Error(t, err, "missing ack must surface as an error")
}

func TestMQTTNotifierPublishError(t *testing.T) {
	mc := &mockClient{publishErr: fmt.Errorf("broker down")}
	withMockClient(t, mc)

	n, err := NewMQTTNotifier(MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test"})
	require.NoError(t, err)
	defer n.Close()

	err = n.SendAlert(context.Background(), "+919", "msg")
	assert.ErrorContains(t, err, "publish order")
}
