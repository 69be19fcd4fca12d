package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"valuerank/internal/comparable"
)

// Config holds the full application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Oracle  OracleConfig  `yaml:"oracle" mapstructure:"oracle"`
	Audit   AuditConfig   `yaml:"audit" mapstructure:"audit"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Compare CompareConfig `yaml:"compare" mapstructure:"compare"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig selects where the valuation grid is read from.
type SourceConfig struct {
	Kind            string `yaml:"kind" mapstructure:"kind"` // xlsx, csv, gsheet, oracle
	Path            string `yaml:"path" mapstructure:"path"`
	SheetName       string `yaml:"sheet_name" mapstructure:"sheet_name"`
	SheetIndex      int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	Delimiter       string `yaml:"delimiter" mapstructure:"delimiter"`
	SpreadsheetID   string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	GID             int64  `yaml:"gid" mapstructure:"gid"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	Query           string `yaml:"query" mapstructure:"query"`
	ScanRows        int    `yaml:"scan_rows" mapstructure:"scan_rows"`
}

// OracleConfig holds the Autonomous Database connection settings shared by
// the oracle source and audit sink.
type OracleConfig struct {
	Host           string `yaml:"host" mapstructure:"host"`
	Port           string `yaml:"port" mapstructure:"port"`
	Service        string `yaml:"service" mapstructure:"service"`
	Username       string `yaml:"username" mapstructure:"username"`
	Password       string `yaml:"password" mapstructure:"password"`
	WalletLocation string `yaml:"wallet_location" mapstructure:"wallet_location"`
}

// AuditConfig selects the best-effort audit log sink.
type AuditConfig struct {
	Kind            string `yaml:"kind" mapstructure:"kind"` // none, sqlite, csv, gsheet, oracle
	Path            string `yaml:"path" mapstructure:"path"`
	SpreadsheetID   string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	GID             int64  `yaml:"gid" mapstructure:"gid"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	Table           string `yaml:"table" mapstructure:"table"`
	Timezone        string `yaml:"timezone" mapstructure:"timezone"`
}

// DatasetConfig bounds a load.
type DatasetConfig struct {
	MaxRows int `yaml:"max_rows" mapstructure:"max_rows"`
	MinYear int `yaml:"min_year" mapstructure:"min_year"`
	MaxYear int `yaml:"max_year" mapstructure:"max_year"`
}

// CompareConfig holds comparable search defaults. Zero years mean the first
// and last year of the loaded data.
type CompareConfig struct {
	Mode          string `yaml:"mode" mapstructure:"mode"`
	BaseYear      int    `yaml:"base_year" mapstructure:"base_year"`
	LatestYear    int    `yaml:"latest_year" mapstructure:"latest_year"`
	SearchBreadth int    `yaml:"search_breadth" mapstructure:"search_breadth"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ExportConfig configures the bulk export.
type ExportConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads .env, then config.yaml, then the environment.
func Load() (*Config, error) {
	// .env is optional and never overrides variables already set.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VALUERANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source.kind", "xlsx")
	v.SetDefault("source.path", "data/valuations.xlsx")
	v.SetDefault("source.delimiter", ",")
	v.SetDefault("source.scan_rows", 50)
	v.SetDefault("source.query", "SELECT * FROM VALUATIONS")
	v.SetDefault("oracle.host", "localhost")
	v.SetDefault("oracle.port", "1522")
	v.SetDefault("oracle.service", "XE")
	v.SetDefault("oracle.username", "")
	v.SetDefault("oracle.password", "")
	v.SetDefault("oracle.wallet_location", "")
	v.SetDefault("audit.kind", "none")
	v.SetDefault("audit.path", "data/audit.db")
	v.SetDefault("audit.table", "VALUERANK_AUDIT")
	v.SetDefault("audit.timezone", "Asia/Seoul")
	v.SetDefault("dataset.max_rows", 10337)
	v.SetDefault("dataset.min_year", 2010)
	v.SetDefault("dataset.max_year", 2100)
	v.SetDefault("compare.mode", "simple")
	v.SetDefault("compare.search_breadth", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("export.concurrency", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the selected source and sink have what they need.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "xlsx", "csv":
		if c.Source.Path == "" {
			return eris.Errorf("config: source.path is required for %s sources", c.Source.Kind)
		}
	case "gsheet":
		if c.Source.SpreadsheetID == "" {
			return eris.New("config: source.spreadsheet_id is required for gsheet sources")
		}
	case "oracle":
		if c.Oracle.Username == "" || c.Source.Query == "" {
			return eris.New("config: oracle.username and source.query are required for oracle sources")
		}
	default:
		return eris.Errorf("config: unknown source.kind %q", c.Source.Kind)
	}

	switch c.Audit.Kind {
	case "", "none":
	case "sqlite", "csv":
		if c.Audit.Path == "" {
			return eris.Errorf("config: audit.path is required for %s audit logs", c.Audit.Kind)
		}
	case "gsheet":
		if c.Audit.SpreadsheetID == "" {
			return eris.New("config: audit.spreadsheet_id is required for gsheet audit logs")
		}
	case "oracle":
		if c.Oracle.Username == "" || c.Audit.Table == "" {
			return eris.New("config: oracle.username and audit.table are required for oracle audit logs")
		}
	default:
		return eris.Errorf("config: unknown audit.kind %q", c.Audit.Kind)
	}

	if c.Dataset.MinYear > c.Dataset.MaxYear {
		return eris.Errorf("config: dataset.min_year %d is after max_year %d", c.Dataset.MinYear, c.Dataset.MaxYear)
	}
	if _, err := comparable.ParseMode(c.Compare.Mode); err != nil {
		return eris.Wrap(err, "config: compare.mode")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
