package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/worklane/worklane/logger"
	"github.com/worklane/worklane/model"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

/* ========================================================================
 * Kafka Publisher - 审计事件外发
 * ========================================================================
 * 职责: 把落库成功的审计事件同步发布到 Kafka 主题
 * 技术: IBM/sarama 同步生产者
 * 设计: 以 account_id 作为分区 key，同一账户的事件保持有序；
 *       外发失败由调用方（audit.Recorder）降级处理，不影响落库
 * ======================================================================== */

// Config Kafka 发布配置
type Config struct {
	Enable  bool     `yaml:"enable" mapstructure:"enable"`
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
	Topic   string   `yaml:"topic" mapstructure:"topic"`
	Version string   `yaml:"version" mapstructure:"version"`

	RequiredAcks string        `yaml:"required_acks" mapstructure:"required_acks"` // none, leader, all
	Compression  string        `yaml:"compression" mapstructure:"compression"`     // gzip, snappy, lz4, zstd
	RetryMax     int           `yaml:"retry_max" mapstructure:"retry_max"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`

	SASL SASLConfig `yaml:"sasl" mapstructure:"sasl"`
	TLS  TLSConfig  `yaml:"tls" mapstructure:"tls"`
}

// SASLConfig SASL 认证配置
type SASLConfig struct {
	Enable    bool   `yaml:"enable" mapstructure:"enable"`
	Mechanism string `yaml:"mechanism" mapstructure:"mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`
}

// TLSConfig TLS 配置
type TLSConfig struct {
	Enable   bool   `yaml:"enable" mapstructure:"enable"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	CAFile   string `yaml:"ca_file" mapstructure:"ca_file"`
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
}

// Publisher 审计事件发布器，实现 audit.Stream
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewPublisher 创建发布器
func NewPublisher(cfg Config, log *logger.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	saramaCfg, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sarama config: %w", err)
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Kafka publisher started",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)

	return &Publisher{
		producer: producer,
		topic:    cfg.Topic,
		log:      log.Named("kafka"),
	}, nil
}

// Publish 发布一条审计事件
func (p *Publisher) Publish(ctx context.Context, event *model.AuditEvent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(strconv.FormatInt(event.AccountID, 10)),
		Value:     sarama.ByteEncoder(body),
		Timestamp: time.Now(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("action"), Value: []byte(event.Action)},
			{Key: []byte("subject_kind"), Value: []byte(event.SubjectKind)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	p.log.Debug("audit event published",
		zap.Int64("event_id", event.ID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close 关闭发布器
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.producer.Close()
}

func buildSaramaConfig(cfg Config) (*sarama.Config, error) {
	saramaCfg := sarama.NewConfig()

	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version: %w", err)
		}
		saramaCfg.Version = version
	}

	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	if cfg.RetryMax > 0 {
		saramaCfg.Producer.Retry.Max = cfg.RetryMax
	}
	if cfg.Timeout > 0 {
		saramaCfg.Producer.Timeout = cfg.Timeout
	}

	switch cfg.RequiredAcks {
	case "none":
		saramaCfg.Producer.RequiredAcks = sarama.NoResponse
	case "all":
		saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	default:
		saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	}

	switch cfg.Compression {
	case "gzip":
		saramaCfg.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		saramaCfg.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		saramaCfg.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		saramaCfg.Producer.Compression = sarama.CompressionZSTD
	default:
		saramaCfg.Producer.Compression = sarama.CompressionNone
	}

	if cfg.SASL.Enable {
		saramaCfg.Net.SASL.Enable = true
		saramaCfg.Net.SASL.User = cfg.SASL.Username
		saramaCfg.Net.SASL.Password = cfg.SASL.Password

		switch cfg.SASL.Mechanism {
		case "SCRAM-SHA-256":
			saramaCfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &XDGSCRAMClient{HashGeneratorFcn: SHA256}
			}
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "SCRAM-SHA-512":
			saramaCfg.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &XDGSCRAMClient{HashGeneratorFcn: SHA512}
			}
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		default:
			saramaCfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}

	if cfg.TLS.Enable {
		tlsConfig, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		saramaCfg.Net.TLS.Enable = true
		saramaCfg.Net.TLS.Config = tlsConfig
	}

	return saramaCfg, nil
}

func buildTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCertPool := x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cert/key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
