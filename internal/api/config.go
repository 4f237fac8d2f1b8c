package api

type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Service string `mapstructure:"service"`
	// MetricsPort starts a second listener serving only /metrics and /healthz
	// when set
	MetricsPort int `mapstructure:"metrics-port"`
}
