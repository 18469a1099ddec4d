package config

import (
	"log"
	"strings"
	"time"

	"tripconsole/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Env struct {
	AppAddr string `mapstructure:"app_addr"`
	GinMode string `mapstructure:"gin_mode"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	BackendBaseURL string        `mapstructure:"backend_base_url"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`
	BackendSecret  string        `mapstructure:"backend_secret"`
	BackendIssuer  string        `mapstructure:"backend_issuer"`
	BackendSubject string        `mapstructure:"backend_subject"`

	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
	JWTTTL    time.Duration `mapstructure:"jwt_ttl"`

	BlobDriver        string `mapstructure:"blob_driver"`
	S3Bucket          string `mapstructure:"s3_bucket"`
	S3Region          string `mapstructure:"s3_region"`
	S3Endpoint        string `mapstructure:"s3_endpoint"`
	S3AccessKeyID     string `mapstructure:"s3_access_key_id"`
	S3SecretAccessKey string `mapstructure:"s3_secret_access_key"`
	S3PathStyle       bool   `mapstructure:"s3_path_style"`
	S3Prefix          string `mapstructure:"s3_prefix"`

	UploadMaxBytes int64  `mapstructure:"upload_max_bytes"`
	CORSOrigins    string `mapstructure:"cors_origins"`
}

var defaults = map[string]any{
	"app_addr":             ":8080",
	"gin_mode":             "",
	"db_host":              "127.0.0.1",
	"db_port":              3306,
	"db_user":              "root",
	"db_password":          "",
	"db_name":              "tripconsole",
	"redis_addr":           "",
	"redis_password":       "",
	"redis_db":             0,
	"backend_base_url":     "http://127.0.0.1:9090",
	"backend_timeout":      "30s",
	"backend_secret":       "",
	"backend_issuer":       "tripconsole",
	"backend_subject":      "tripconsole-service",
	"jwt_secret":           "",
	"jwt_issuer":           "tripconsole",
	"jwt_ttl":              "12h",
	"blob_driver":          "memory",
	"s3_bucket":            "",
	"s3_region":            "us-east-1",
	"s3_endpoint":          "",
	"s3_access_key_id":     "",
	"s3_secret_access_key": "",
	"s3_path_style":        false,
	"s3_prefix":            "staging/",
	"upload_max_bytes":     10 << 20,
	"cors_origins":         "*",
}

// LoadEnv reads .env (if present), an optional configs/config.yaml and the
// process environment, in increasing priority.
func LoadEnv() Env {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[CONFIG] no config file, using env and defaults")
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	env.GinMode = strings.TrimSpace(env.GinMode)
	env.BlobDriver = strings.ToLower(strings.TrimSpace(env.BlobDriver))
	return env
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (e Env) AllowedOrigins() []string {
	return utils.SplitList(e.CORSOrigins)
}
