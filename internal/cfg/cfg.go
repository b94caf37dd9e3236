package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

type Config struct {
	Http   *HTTPConfig
	Relay  *RelayCfg
	Signer *SignerCfg
	Redis  *RedisCfg // nil, если REDIS_ADDR не задан
	Kafka  *KafkaCfg // nil, если KAFKA_BROKERS не задан
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RelayCfg struct {
	URLs           []string
	Quorum         int
	ConnectTimeout time.Duration
	OpTimeout      time.Duration
}

type SignerCfg struct {
	Addr           string // пустая строка — подписант не сконфигурирован
	MaxRetries     int
	RequestTimeout time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	BrowseTTL   time.Duration
	FollowsTTL  time.Duration
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	relay, err := loadRelayCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	signer, err := loadSignerCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:   http,
		Relay:  relay,
		Signer: signer,
		Redis:  redis,
		Kafka:  kafka,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

// loadRelayCfg загружает список реле и параметры кворума.
// Список кандидатов фиксируется на старте и целиком переиспользуется
// при каждом переподключении.
func loadRelayCfg(log logger.Logger) (*RelayCfg, error) {
	const (
		defaultQuorum         = 1
		defaultConnectTimeout = 7 * time.Second
		defaultOpTimeout      = 10 * time.Second
	)

	// Публичные реле из клиента по умолчанию
	defaultURLs := []string{
		"wss://nos.lol",
		"wss://relay.nostr.band",
		"wss://relay.damus.io",
		"wss://nostr.mom",
		"wss://relay.nostr.bg",
	}

	urls := defaultURLs
	if raw := getEnv("RELAY_URLS"); raw != "" {
		urls = nil
		for _, u := range strings.Split(raw, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) == 0 {
			err := fmt.Errorf("RELAY_URLS is set but contains no usable URLs")
			log.Errorf(err, "invalid RELAY_URLS")
			return nil, err
		}
	}

	quorum, err := parseIntEnv("RELAY_QUORUM", defaultQuorum)
	if err != nil {
		log.Errorf(err, "invalid RELAY_QUORUM")
		return nil, err
	}
	if quorum < 1 || quorum > len(urls) {
		err := fmt.Errorf("RELAY_QUORUM must be between 1 and %d, got %d", len(urls), quorum)
		log.Errorf(err, "invalid RELAY_QUORUM")
		return nil, err
	}

	connectTimeout, err := parseDurationEnv("RELAY_CONNECT_TIMEOUT", defaultConnectTimeout)
	if err != nil {
		log.Errorf(err, "invalid RELAY_CONNECT_TIMEOUT")
		return nil, err
	}

	opTimeout, err := parseDurationEnv("RELAY_OP_TIMEOUT", defaultOpTimeout)
	if err != nil {
		log.Errorf(err, "invalid RELAY_OP_TIMEOUT")
		return nil, err
	}

	return &RelayCfg{
		URLs:           urls,
		Quorum:         quorum,
		ConnectTimeout: connectTimeout,
		OpTimeout:      opTimeout,
	}, nil
}

func loadSignerCfg(log logger.Logger) (*SignerCfg, error) {
	const (
		defaultMaxRetries     = 3
		defaultRequestTimeout = 15 * time.Second
	)

	maxRetries, err := parseIntEnv("SIGNER_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid SIGNER_MAX_RETRIES")
		return nil, err
	}

	requestTimeout, err := parseDurationEnv("SIGNER_REQUEST_TIMEOUT", defaultRequestTimeout)
	if err != nil {
		log.Errorf(err, "invalid SIGNER_REQUEST_TIMEOUT")
		return nil, err
	}

	return &SignerCfg{
		Addr:           strings.TrimRight(getEnv("SIGNER_ADDR"), "/"),
		MaxRetries:     maxRetries,
		RequestTimeout: requestTimeout,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultBrowseTTL    = 1 * time.Minute
		defaultFollowsTTL   = 5 * time.Minute
	)

	addr := getEnv("REDIS_ADDR")
	if addr == "" {
		return nil, nil // кэш выключен
	}

	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	browseTTL, err := parseDurationEnv("BROWSE_TTL", defaultBrowseTTL)
	if err != nil {
		log.Errorf(err, "invalid BROWSE_TTL")
		return nil, err
	}

	followsTTL, err := parseDurationEnv("FOLLOWS_TTL", defaultFollowsTTL)
	if err != nil {
		log.Errorf(err, "invalid FOLLOWS_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		BrowseTTL:   browseTTL,
		FollowsTTL:  followsTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil // фид выключен
	}
	brokers := strings.Split(brokerStr, ",")

	topic := getEnv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	networkMode := getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode)

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       networkMode,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv читает time.Duration из переменной окружения
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return d, nil
}

// parseIntEnv читает int из переменной окружения
func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, e.Wrap(key, e.ErrIncorrectEnvVariable)
	}

	return v, nil
}
