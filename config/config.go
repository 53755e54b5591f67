package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	CarTrace CarTraceConfig `yaml:"cartrace"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	OrderUpdatedTopicName string `yaml:"order_updated_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type CarTraceConfig struct {
	HTTPAddr               string `yaml:"http_addr"`
	KafkaConsumerGroup     string `yaml:"kafka_consumer_group"`
	CurrentOrderTTLSeconds int    `yaml:"current_order_ttl_seconds"`

	AdminToken string `yaml:"admin_token"`
	UploadDir  string `yaml:"upload_dir"`

	// Код доступа включён по умолчанию; выключается явно — режим для демо.
	AccessCodeDisabled bool `yaml:"access_code_disabled"`
	// Разрешает 6-значные демо-номера на публичном трекинге.
	DemoTracking bool `yaml:"demo_tracking"`

	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds"`
	RateLimitTrack         int `yaml:"rate_limit_track"`
	RateLimitChatSend      int `yaml:"rate_limit_chat_send"`
	RateLimitLists         int `yaml:"rate_limit_lists"`
	RateLimitFileFetch     int `yaml:"rate_limit_file_fetch"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
