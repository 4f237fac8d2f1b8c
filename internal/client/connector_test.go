package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pecigonzalo/kafka-spout/internal/broker"
)

func TestNewConnector(t *testing.T) {
	type args struct {
		config ConnectorConfig
	}
	tests := []struct {
		name      string
		args      args
		assertion assert.ErrorAssertionFunc
	}{
		{
			name:      "Default",
			args:      args{ConnectorConfig{}},
			assertion: assert.NoError,
		},
		{
			name: "Plain",
			args: args{ConnectorConfig{
				BrokerAddrs: []string{"broker-1:9098"},
				SASL: SASLConfig{
					Enabled:   true,
					Mechanism: SASLMechanismPlain,
					Username:  "user",
					Password:  "pass",
				},
			}},
			assertion: assert.NoError,
		},
		{
			name: "ScramSHA512",
			args: args{ConnectorConfig{
				BrokerAddrs: []string{"broker-1:9098"},
				SASL: SASLConfig{
					Enabled:   true,
					Mechanism: SASLMechanismScramSHA512,
					Username:  "user",
					Password:  "pass",
				},
			}},
			assertion: assert.NoError,
		},
		{
			name: "BadMechanism",
			args: args{ConnectorConfig{
				BrokerAddrs: []string{"broker-1:9098"},
				SASL: SASLConfig{
					Enabled:   true,
					Mechanism: "INVALID",
				},
			}},
			assertion: assert.Error,
		},
		{
			name: "MissingCACert",
			args: args{ConnectorConfig{
				BrokerAddrs: []string{"broker-1:9098"},
				TLS: TLSConfig{
					Enabled:    true,
					CACertPath: "/does/not/exist.pem",
				},
			}},
			assertion: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnector(tt.args.config)
			tt.assertion(t, err)
		})
	}
}

func TestConnector_Connect(t *testing.T) {
	connector, err := NewConnector(ConnectorConfig{
		BrokerAddrs: []string{"broker-1:9098"},
		ClientID:    "test-client",
		Timeout:     time.Second,
	})
	require.NoError(t, err)

	c := connector.Connect(broker.MustParse("broker-2:9092"))
	assert.Equal(t, "broker-2:9092", c.Addr.String())
	assert.Equal(t, time.Second, c.Timeout)
	assert.Same(t, connector.Transport, c.Transport)
	assert.Equal(t, "test-client", connector.Transport.ClientID)
}

func TestNewConnector_DefaultTimeout(t *testing.T) {
	connector, err := NewConnector(ConnectorConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, connector.KafkaClient.Timeout)
	assert.Equal(t, defaultTimeout, connector.Dialer.Timeout)
}

func TestNewConnector_ClientID(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		want     string
	}{
		{name: "Default", want: DefaultClientID},
		{name: "Configured", clientID: "spout-1", want: "spout-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connector, err := NewConnector(ConnectorConfig{ClientID: tt.clientID})
			require.NoError(t, err)
			assert.Equal(t, tt.want, connector.Config.ClientID)
			assert.Equal(t, tt.want, connector.Dialer.ClientID)
			assert.Equal(t, tt.want, connector.Transport.ClientID)
		})
	}
}

func TestSASLNameToMechanism(t *testing.T) {
	tests := []struct {
		name      string
		want      SASLMechanism
		assertion assert.ErrorAssertionFunc
	}{
		{"AWS_MSK_IAM", SASLMechanismAWSMSKIAM, assert.NoError},
		{"PLAIN", SASLMechanismPlain, assert.NoError},
		{"scram_sha_256", SASLMechanismScramSHA256, assert.NoError},
		{"SCRAM-SHA-512", SASLMechanismScramSHA512, assert.NoError},
		{"GSSAPI", SASLMechanism("gssapi"), assert.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SASLNameToMechanism(tt.name)
			tt.assertion(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
