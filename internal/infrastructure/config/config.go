package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all engine configuration loaded from environment variables.
type Config struct {
	HTTPPort  int
	DB        DBConfig
	Kafka     KafkaConfig
	Outbox    OutboxConfig
	Saga      SagaConfig
	ACH       ACHConfig
	FIRE      FIREConfig
	Accounts  AccountsConfig
	LogLevel  string
	LogFormat string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OutboxConfig sizes the outbox worker.
type OutboxConfig struct {
	BatchSize    int
	LockDuration time.Duration
	PollInterval time.Duration
	MaxAttempts  int
}

// SagaConfig sizes the saga engine and its reaper.
type SagaConfig struct {
	Timeout        time.Duration
	HeartbeatTTL   time.Duration
	ReaperInterval time.Duration
	ReaperBatch    int
}

// ACHConfig identifies the originator on generated NACHA files.
type ACHConfig struct {
	CompanyName        string
	CompanyID          string
	ODFIRouting        string
	OriginRoutingID    string
	DestinationRouting string
	OriginName         string
	DestinationName    string
	OutboundDir        string
}

// FIREConfig identifies the payer and transmitter on 1099 transmissions.
type FIREConfig struct {
	PayerTIN     string
	PayerName    string
	Address      string
	City         string
	State        string
	ZIP          string
	ControlCode  string
	ContactName  string
	ContactPhone string
}

// AccountsConfig names the chart-of-accounts codes the saga executors post
// against.
type AccountsConfig struct {
	NSFReceivable          string
	NSFFeeIncome           string
	DepositInterestExpense string
	DepositDeductionIncome string
	DepositReceivable      string
}

// Validate checks required configuration values.
func (c Config) Validate() {
	if c.DB.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8090),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "trust"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "trust_ledger"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "trust.ledger.events"),
		},
		Outbox: OutboxConfig{
			BatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 10),
			LockDuration: getEnvDuration("OUTBOX_LOCK_DURATION", 5*time.Minute),
			PollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			MaxAttempts:  getEnvInt("OUTBOX_MAX_ATTEMPTS", 5),
		},
		Saga: SagaConfig{
			Timeout:        getEnvDuration("SAGA_TIMEOUT", 30*time.Minute),
			HeartbeatTTL:   getEnvDuration("SAGA_HEARTBEAT_TTL", 10*time.Minute),
			ReaperInterval: getEnvDuration("SAGA_REAPER_INTERVAL", time.Minute),
			ReaperBatch:    getEnvInt("SAGA_REAPER_BATCH", 50),
		},
		ACH: ACHConfig{
			CompanyName:        getEnv("ACH_COMPANY_NAME", ""),
			CompanyID:          getEnv("ACH_COMPANY_ID", ""),
			ODFIRouting:        getEnv("ACH_ODFI_ROUTING", ""),
			OriginRoutingID:    getEnv("ACH_ORIGIN_ROUTING", ""),
			DestinationRouting: getEnv("ACH_DESTINATION_ROUTING", ""),
			OriginName:         getEnv("ACH_ORIGIN_NAME", ""),
			DestinationName:    getEnv("ACH_DESTINATION_NAME", ""),
			OutboundDir:        getEnv("ACH_OUTBOUND_DIR", "/var/spool/trust/ach"),
		},
		FIRE: FIREConfig{
			PayerTIN:     getEnv("FIRE_PAYER_TIN", ""),
			PayerName:    getEnv("FIRE_PAYER_NAME", ""),
			Address:      getEnv("FIRE_ADDRESS", ""),
			City:         getEnv("FIRE_CITY", ""),
			State:        getEnv("FIRE_STATE", ""),
			ZIP:          getEnv("FIRE_ZIP", ""),
			ControlCode:  getEnv("FIRE_CONTROL_CODE", ""),
			ContactName:  getEnv("FIRE_CONTACT_NAME", ""),
			ContactPhone: getEnv("FIRE_CONTACT_PHONE", ""),
		},
		Accounts: AccountsConfig{
			NSFReceivable:          getEnv("ACCT_NSF_RECEIVABLE", "1200"),
			NSFFeeIncome:           getEnv("ACCT_NSF_FEE_INCOME", "4300"),
			DepositInterestExpense: getEnv("ACCT_DEPOSIT_INTEREST_EXPENSE", "5200"),
			DepositDeductionIncome: getEnv("ACCT_DEPOSIT_DEDUCTION_INCOME", "4400"),
			DepositReceivable:      getEnv("ACCT_DEPOSIT_RECEIVABLE", "1210"),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
