package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophmarket/internal/flagx"
	"github.com/dmitrijs2005/gophmarket/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "1h" and integer nanoseconds are accepted. Fields
// left out of the file keep their current value.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	HealthAddrGRPC              string         `json:"health_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DBMaxOpenConns              int            `json:"db_max_open_conns"`
	DBMaxIdleConns              int            `json:"db_max_idle_conns"`
	DBConnMaxLifetime           timex.Duration `json:"db_conn_max_lifetime"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	S3PublicBaseURL             string         `json:"s3_public_base_url"`
	SessionSweepSchedule        string         `json:"session_sweep_schedule"`
	SessionGracePeriod          timex.Duration `json:"session_grace_period"`
	LogFormat                   string         `json:"log_format"`
}

// parseJson loads the file named by -c/-config (or MARKET_CONFIG) into
// config. Without a path nothing happens; an unreadable or invalid file
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.HealthAddrGRPC, c.HealthAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.DBMaxOpenConns > 0 {
		config.DBMaxOpenConns = c.DBMaxOpenConns
	}
	if c.DBMaxIdleConns > 0 {
		config.DBMaxIdleConns = c.DBMaxIdleConns
	}
	if c.DBConnMaxLifetime.Duration > 0 {
		config.DBConnMaxLifetime = c.DBConnMaxLifetime.Duration
	}
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.SessionSweepSchedule, c.SessionSweepSchedule)
	if c.SessionGracePeriod.Duration > 0 {
		config.SessionGracePeriod = c.SessionGracePeriod.Duration
	}
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
