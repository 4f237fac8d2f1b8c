package client

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	sigv4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/aws_msk_iam"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/pecigonzalo/kafka-spout/internal/broker"
)

const (
	defaultTimeout = 10 * time.Second
	// DefaultClientID is sent with every request when no client id is configured
	DefaultClientID = "kafka-spout"
)

// SASLMechanism is the name of a SASL mechanism that will be used for client authentication.
type SASLMechanism string

const (
	SASLMechanismAWSMSKIAM   SASLMechanism = "aws-msk-iam"
	SASLMechanismPlain       SASLMechanism = "plain"
	SASLMechanismScramSHA256 SASLMechanism = "scram-sha-256"
	SASLMechanismScramSHA512 SASLMechanism = "scram-sha-512"
)

// ConnectorConfig contains the configuration used to contruct a connector.
type ConnectorConfig struct {
	BrokerAddrs []string      `mapstructure:"brokers"`
	ClientID    string        `mapstructure:"client-id"`
	Timeout     time.Duration `mapstructure:"timeout"`
	TLS         TLSConfig     `mapstructure:"tls"`
	SASL        SASLConfig    `mapstructure:"sasl"`
}

// TLSConfig stores the TLS-related configuration for a connection.
type TLSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CertPath   string `mapstructure:"cert-path"`
	KeyPath    string `mapstructure:"key-path"`
	CACertPath string `mapstructure:"ca-cert-path"`
	ServerName string `mapstructure:"server-name"`
	SkipVerify bool   `mapstructure:"skip-verify"`
}

// SASLConfig stores the SASL-related configuration for a connection.
type SASLConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Mechanism SASLMechanism `mapstructure:"mechanism"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
}

// Connector is a wrapper around the low-level, kafka-go dialer and transport.
// Every broker connection handed out by a Connector shares its transport.
type Connector struct {
	Config      ConnectorConfig
	Dialer      *kafka.Dialer
	Transport   *kafka.Transport
	KafkaClient *kafka.Client
}

// NewConnector contructs a new Connector instance given the argument config.
func NewConnector(config ConnectorConfig) (*Connector, error) {
	connector := &Connector{
		Config: config,
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if config.ClientID == "" {
		config.ClientID = DefaultClientID
		connector.Config.ClientID = DefaultClientID
	}

	mechanismClient, err := newSASLMechanism(config.SASL)
	if err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config
	if config.TLS.Enabled {
		tlsConfig, err = newTLSConfig(config.TLS)
		if err != nil {
			return nil, err
		}
	}

	connector.Dialer = &kafka.Dialer{
		ClientID:      config.ClientID,
		SASLMechanism: mechanismClient,
		Timeout:       timeout,
		TLS:           tlsConfig,
		DualStack:     true,
	}

	connector.Transport = &kafka.Transport{
		Dial:        connector.Dialer.DialFunc,
		DialTimeout: timeout,
		ClientID:    config.ClientID,
		SASL:        mechanismClient,
		TLS:         tlsConfig,
	}

	connector.KafkaClient = &kafka.Client{
		Addr:      kafka.TCP(config.BrokerAddrs...),
		Timeout:   timeout,
		Transport: connector.Transport,
	}

	return connector, nil
}

// Connect returns a client bound to a single broker, usually a partition leader
func (c *Connector) Connect(addr broker.Address) *kafka.Client {
	return &kafka.Client{
		Addr:      kafka.TCP(addr.String()),
		Timeout:   c.KafkaClient.Timeout,
		Transport: c.Transport,
	}
}

// Close releases the idle connections held by the shared transport
func (c *Connector) Close() {
	c.Transport.CloseIdleConnections()
}

func newSASLMechanism(config SASLConfig) (sasl.Mechanism, error) {
	if !config.Enabled {
		return nil, nil
	}

	switch config.Mechanism {
	case SASLMechanismAWSMSKIAM:
		sess := session.Must(session.NewSession())
		signer := sigv4.NewSigner(sess.Config.Credentials)
		region := aws.StringValue(sess.Config.Region)

		return &aws_msk_iam.Mechanism{
			Signer: signer,
			Region: region,
		}, nil
	case SASLMechanismPlain:
		return plain.Mechanism{
			Username: config.Username,
			Password: config.Password,
		}, nil
	case SASLMechanismScramSHA256:
		return scram.Mechanism(
			scram.SHA256,
			config.Username,
			config.Password,
		)
	case SASLMechanismScramSHA512:
		return scram.Mechanism(
			scram.SHA512,
			config.Username,
			config.Password,
		)
	default:
		return nil, fmt.Errorf("unrecognized SASL mechanism: %s", config.Mechanism)
	}
}

func newTLSConfig(config TLSConfig) (*tls.Config, error) {
	var certs []tls.Certificate
	var caCertPool *x509.CertPool

	if config.CertPath != "" && config.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	if config.CACertPath != "" {
		caCertPool = x509.NewCertPool()
		caCertContents, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, err
		}
		if ok := caCertPool.AppendCertsFromPEM(caCertContents); !ok {
			return nil, fmt.Errorf(
				"could not append CA certs from %s",
				config.CACertPath,
			)
		}
	}

	return &tls.Config{
		Certificates:       certs,
		RootCAs:            caCertPool,
		InsecureSkipVerify: config.SkipVerify,
		ServerName:         config.ServerName,
	}, nil
}

// SASLNameToMechanism converts the argument SASL mechanism name string to a valid instance of
// the SASLMechanism enum.
func SASLNameToMechanism(name string) (SASLMechanism, error) {
	normalizedName := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	mechanism := SASLMechanism(normalizedName)

	switch mechanism {
	case SASLMechanismAWSMSKIAM,
		SASLMechanismPlain,
		SASLMechanismScramSHA256,
		SASLMechanismScramSHA512:
		return mechanism, nil
	default:
		return mechanism, fmt.Errorf(
			"SASL mechanism '%s' is not valid; choices are AWS-MSK-IAM, PLAIN, SCRAM-SHA-256, and SCRAM-SHA-512",
			mechanism,
		)
	}
}
