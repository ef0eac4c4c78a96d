package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// StoreCredentialsEnv 存储凭据只从环境变量读取,不写入 appconfig.json
const StoreCredentialsEnv = "REPORT_STORE_CREDENTIALS"

var ErrMissingCredentials = errors.New("store credentials not set")

type StoreCredentials struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadStoreCredentials 读取 REPORT_STORE_CREDENTIALS(JSON),工作目录下存在 .env 时先加载它
func LoadStoreCredentials() (*StoreCredentials, error) {
	// .env 不存在是正常情况
	_ = godotenv.Load()
	return ParseStoreCredentials(os.Getenv(StoreCredentialsEnv))
}

func ParseStoreCredentials(blob string) (*StoreCredentials, error) {
	if blob == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingCredentials, StoreCredentialsEnv)
	}
	var creds StoreCredentials
	if err := json.Unmarshal([]byte(blob), &creds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", StoreCredentialsEnv, err)
	}
	if creds.Address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrMissingCredentials)
	}
	return &creds, nil
}

// Apply 用环境变量中的凭据覆盖配置文件中的 elasticsearch 连接信息
func (c *StoreCredentials) Apply(cfg *Config) {
	cfg.Elasticsearch.Address = c.Address
	cfg.Elasticsearch.Username = c.Username
	cfg.Elasticsearch.Password = c.Password
}
