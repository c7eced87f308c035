package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings shared by the server and the worker.
type Config struct {
	Port        string
	DatabaseURL string
	DBLogLevel  string
	RedisURL    string
	AMQPURL     string

	// GatewayDriver selects the Authorizer implementation: "http" or "midtrans".
	GatewayDriver     string
	GatewayURL        string
	GatewayTimeout    time.Duration
	RequestTimeout    time.Duration
	MidtransServerKey string
	MidtransProd      bool

	WahaBaseURL string
	WahaAPIKey  string
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	EmailFrom   string

	WorkerInterval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_log_level", "warn")
	v.SetDefault("gateway_driver", "http")
	v.SetDefault("external_payment_api_url", "http://localhost:9000")
	v.SetDefault("gateway_timeout", "10s")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("waha_base_url", "http://waha:3000")
	v.SetDefault("worker_interval", "5m")
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:              v.GetString("port"),
		DatabaseURL:       v.GetString("database_url"),
		DBLogLevel:        v.GetString("db_log_level"),
		RedisURL:          v.GetString("redis_url"),
		AMQPURL:           v.GetString("amqp_url"),
		GatewayDriver:     strings.ToLower(v.GetString("gateway_driver")),
		GatewayURL:        strings.TrimRight(v.GetString("external_payment_api_url"), "/"),
		GatewayTimeout:    v.GetDuration("gateway_timeout"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		MidtransServerKey: v.GetString("midtrans_server_key"),
		MidtransProd:      v.GetBool("midtrans_is_production"),
		WahaBaseURL:       v.GetString("waha_base_url"),
		WahaAPIKey:        v.GetString("waha_api_key"),
		SMTPHost:          v.GetString("smtp_host"),
		SMTPPort:          v.GetString("smtp_port"),
		SMTPUser:          v.GetString("smtp_user"),
		SMTPPass:          v.GetString("smtp_pass"),
		EmailFrom:         v.GetString("email_from"),
		WorkerInterval:    v.GetDuration("worker_interval"),
	}
}
