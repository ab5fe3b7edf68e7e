package broker

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/seguro-platform/scheduler/pkg/log"
)

// Config configures a broker Client's connection.
type Config struct {
	Host      string
	Port      int
	ClientID  string
	TLSCACert string
	TLSCert   string
	TLSKey    string
}

// Client wraps an MQTT connection with the publish/subscribe surface
// used by workloads and by the ACL reconciler's dynamic-security
// command exchange.
type Client struct {
	mc mqtt.Client
}

// New connects to the broker over mTLS and returns a ready Client.
func New(cfg Config) (*Client, error) {
	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building broker TLS config: %w", err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetTLSConfig(tlsConfig).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	mc := mqtt.NewClient(opts)
	if token := mc.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to broker: %w", token.Error())
	}
	return &Client{mc: mc}, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	pool := x509.NewCertPool()
	if cfg.TLSCACert != "" {
		ca, err := os.ReadFile(cfg.TLSCACert)
		if err != nil {
			return nil, fmt.Errorf("reading CA cert: %w", err)
		}
		pool.AppendCertsFromPEM(ca)
	}

	tlsConfig := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

// Publish sends payload to topic.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.mc.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

// Subscribe registers a handler for messages on topic.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.mc.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

// Unsubscribe removes a prior subscription.
func (c *Client) Unsubscribe(topic string) error {
	token := c.mc.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (c *Client) Close() {
	c.mc.Disconnect(250)
}

// PublishSamples publishes an already-encoded workload sample batch to
// topic unchanged. The wire format of the sample envelope is owned by the
// workload containers this platform launches, not by the scheduler
// itself; this method is a thin pass-through so callers never need the
// low-level mqtt.Client.
func (c *Client) PublishSamples(topic string, payload []byte) error {
	log.WithComponent("broker").Debug().Str("topic", topic).Msg("publishing samples")
	return c.Publish(topic, payload)
}

// SubscribeSamples is the receive-side counterpart of PublishSamples.
func (c *Client) SubscribeSamples(topic string, handler func(payload []byte)) error {
	return c.Subscribe(topic, func(_ string, payload []byte) {
		handler(payload)
	})
}
