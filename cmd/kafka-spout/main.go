package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pecigonzalo/kafka-spout/internal/api"
	"github.com/pecigonzalo/kafka-spout/internal/broker"
	"github.com/pecigonzalo/kafka-spout/internal/client"
	"github.com/pecigonzalo/kafka-spout/internal/consumer"
	"github.com/pecigonzalo/kafka-spout/internal/fetcher"
	"github.com/pecigonzalo/kafka-spout/internal/partition"
	"github.com/pecigonzalo/kafka-spout/internal/signals"
	"github.com/pecigonzalo/kafka-spout/internal/workers"
)

var (
	version              = "development"
	metricsNamespace     = "kafka_spout"
	clientCreationFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "client_creation_error_total",
		Namespace: metricsNamespace,
		Help:      "Total number of errors while creating Kafka client",
	}, nil)
)

const (
	locatorStatic   = "static"
	locatorMetadata = "metadata"
)

type Config struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics-port"`
	Level       string `mapstructure:"level"`
	Output      string `mapstructure:"output"`

	Locator    string   `mapstructure:"locator"`
	Partitions []string `mapstructure:"partitions"`

	Topic                                string        `mapstructure:"topic"`
	ForceFromStart                       bool          `mapstructure:"force-from-start"`
	StartOffsetTime                      string        `mapstructure:"start-offset-time"`
	UseStartOffsetTimeIfOffsetOutOfRange bool          `mapstructure:"use-start-offset-time-if-offset-out-of-range"`
	FetchSizeBytes                       int           `mapstructure:"fetch-size-bytes"`
	FetchMaxWait                         time.Duration `mapstructure:"fetch-max-wait"`

	Manager workers.ManagerConfig  `mapstructure:",squash"`
	Kafka   client.ConnectorConfig `mapstructure:",squash"`
}

func main() {
	fs := pflag.NewFlagSet("default", pflag.ContinueOnError)
	fs.String("host", "", "Host to bind service to")
	fs.Int("port", 9898, "HTTP port to bind service to")
	fs.Int("metrics-port", 0, "Additional HTTP port serving only metrics, disabled when 0")
	fs.String("output", "json", "Output target [console, json]")
	fs.String("level", "info", "Log level [debug, info, warn, error, fatal, panic]")

	fs.StringSlice("brokers", []string{}, "Kafka bootstrap broker addresses, used by the metadata locator")
	fs.String("locator", locatorMetadata, "Partition locator [static, metadata]")
	fs.StringSlice("partitions", []string{}, "Static partition leaders as index=host:port, used by the static locator")
	fs.String("client-id", client.DefaultClientID, "Client id sent with every request")
	fs.Duration("timeout", 10*time.Second, "Connection and request timeout")
	fs.Bool("tls.enabled", false, "Connect using TLS")
	fs.String("tls.ca-cert-path", "", "CA certificate used to verify brokers")
	fs.String("tls.cert-path", "", "Client certificate")
	fs.String("tls.key-path", "", "Client certificate key")
	fs.String("tls.server-name", "", "Server name used to verify brokers")
	fs.Bool("tls.skip-verify", false, "Skip broker certificate verification")
	fs.Bool("sasl.enabled", false, "Authenticate using SASL")
	fs.String("sasl.mechanism", string(client.SASLMechanismPlain), "SASL mechanism [aws-msk-iam, plain, scram-sha-256, scram-sha-512]")
	fs.String("sasl.username", "", "SASL username")
	fs.String("sasl.password", "", "SASL password")

	fs.String("topic", "", "Topic to read")
	fs.Bool("force-from-start", false, "Start reading at the start offset time instead of the latest offset")
	fs.String("start-offset-time", "earliest", "Start offset time [earliest, latest]")
	fs.Bool("use-start-offset-time-if-offset-out-of-range", true, "Retry out of range fetches from the start offset time")
	fs.Int("fetch-size-bytes", consumer.DefaultFetchSizeBytes, "Maximum size of a fetch response")
	fs.Duration("fetch-max-wait", consumer.DefaultFetchMaxWait, "Maximum time the broker waits for records")
	fs.Duration("poll-interval", workers.DefaultPollInterval, "Interval between partition polls")
	fs.Duration("refresh-interval", workers.DefaultRefreshInterval, "Interval between partition leader refreshes")
	fs.Duration("locate-timeout", workers.DefaultLocateTimeout, "Timeout of a partition leader refresh")
	versionFlag := fs.BoolP("version", "v", false, "get version number")

	// Bind flags and environment variables
	viper.SetEnvPrefix("KAFKA_SPOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if err := viper.BindPFlags(fs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err.Error())
		os.Exit(2)
	}
	viper.AutomaticEnv()

	// parse flags
	err := fs.Parse(os.Args[1:])
	switch {
	case err == pflag.ErrHelp:
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err.Error())
		fs.PrintDefaults()
		os.Exit(2)
	case *versionFlag:
		fmt.Println(version)
		os.Exit(0)
	}

	// Load config
	var config Config
	if err = viper.Unmarshal(&config); err != nil {
		fmt.Fprintf(os.Stderr, "Config unmarshal failed: %s\n\n", err.Error())
		os.Exit(2)
	}

	// Setup logger
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n\n", err.Error())
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if config.Output == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	logger = logger.With().
		Timestamp().
		Str("version", version).
		Str("service", "kafka-spout").
		Logger()

	consumerConfig, err := newConsumerConfig(config)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid consumer configuration")
	}

	if config.Kafka.SASL.Enabled {
		config.Kafka.SASL.Mechanism, err = client.SASLNameToMechanism(string(config.Kafka.SASL.Mechanism))
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid SASL configuration")
		}
	}

	connector, err := client.NewConnector(config.Kafka)
	if err != nil {
		clientCreationFailed.WithLabelValues().Inc()
		logger.Fatal().Err(err).Msg("Error creating Kafka connector")
	}
	defer connector.Close()

	locator, err := newLocator(config, connector, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error creating partition locator")
	}

	logger.Info().
		Str("topic", consumerConfig.Topic).
		Str("locator", config.Locator).
		Bool("forceFromStart", consumerConfig.ForceFromStart).
		Stringer("startOffsetTime", consumerConfig.StartOffsetTime).
		Bool("useStartOffsetTimeIfOffsetOutOfRange", consumerConfig.UseStartOffsetTimeIfOffsetOutOfRange).
		Msg("Starting Kafka Spout")

	f := fetcher.NewFetcher(&logger, prometheus.DefaultRegisterer)
	manager := workers.NewReaderManager(
		consumerConfig,
		config.Manager,
		locator,
		func(addr broker.Address) client.BrokerConn { return connector.Connect(addr) },
		f,
		logHandler(&logger),
		workers.NewReaderMetrics(prometheus.DefaultRegisterer),
		&logger,
	)

	// Start HTTP server
	srvCfg := api.Config{
		Host:        config.Host,
		Port:        config.Port,
		MetricsPort: config.MetricsPort,
		Service:     "kafka-spout",
	}
	srv, _ := api.NewServer(&srvCfg, func() interface{} { return manager.Status() }, &logger)
	httpServer, healthy, ready := srv.ListenAndServe()

	manager.Start()

	// graceful shutdown
	stopCh := signals.SetupSignalHandler()
	serverShutdownTimeout := 5 * time.Second
	sd, _ := signals.NewShutdown(serverShutdownTimeout, signals.DefaultDrainDelay, &logger)
	sd.Graceful(stopCh, httpServer, manager, healthy, ready)
}

func newConsumerConfig(config Config) (*consumer.Config, error) {
	consumerConfig, err := consumer.NewConfig(config.Topic)
	if err != nil {
		return nil, err
	}

	startOffsetTime, err := consumer.ParseOffsetTime(config.StartOffsetTime)
	if err != nil {
		return nil, err
	}

	consumerConfig.ForceFromStart = config.ForceFromStart
	consumerConfig.StartOffsetTime = startOffsetTime
	consumerConfig.UseStartOffsetTimeIfOffsetOutOfRange = config.UseStartOffsetTimeIfOffsetOutOfRange
	consumerConfig.FetchSizeBytes = config.FetchSizeBytes
	consumerConfig.FetchMaxWait = config.FetchMaxWait

	return consumerConfig, consumerConfig.Validate()
}

func newLocator(config Config, connector *client.Connector, logger *zerolog.Logger) (partition.Locator, error) {
	switch config.Locator {
	case locatorStatic:
		assignment, err := partition.ParseStatic(config.Partitions)
		if err != nil {
			return nil, err
		}
		if assignment.Len() == 0 {
			return nil, fmt.Errorf("locator %s requires at least one partition", locatorStatic)
		}
		return partition.NewStaticHosts(assignment), nil
	case locatorMetadata:
		if len(config.Kafka.BrokerAddrs) == 0 {
			return nil, fmt.Errorf("locator %s requires at least one broker", locatorMetadata)
		}
		return partition.NewMetadataHosts(connector.KafkaClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown locator %q, choices are %s and %s", config.Locator, locatorStatic, locatorMetadata)
	}
}

// logHandler writes every record to the log, it is the sink of the binary
func logHandler(logger *zerolog.Logger) workers.Handler {
	return func(p partition.Partition, messages []fetcher.Message) {
		for _, m := range messages {
			logger.Debug().
				Int("partition", p.Index).
				Int64("offset", m.Offset).
				Bytes("key", m.Key).
				Bytes("value", m.Value).
				Time("timestamp", m.Time).
				Msg("Record")
		}
		logger.Info().
			Int("partition", p.Index).
			Int64("firstOffset", messages[0].Offset).
			Int64("lastOffset", messages[len(messages)-1].Offset).
			Int("count", len(messages)).
			Msg("Read batch")
	}
}
