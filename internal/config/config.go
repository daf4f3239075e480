// Package config loads and validates pipeline configuration from a YAML
// file with environment variable overrides. Source schemas are
// configuration, not constants: required column sets and scrubbing
// options are declared per source so that source evolution never needs
// a code change.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"salesdw/internal/dataset"
)

// Config is the complete pipeline configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Warehouse WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Tiers     TierConfig      `yaml:"tiers" envconfig:"TIERS"`
}

// PathsConfig contains file system locations for a run.
//
// No field carries an envconfig default tag: envconfig re-applies
// default tags over already-populated fields when the variable is
// unset, which would clobber values read from the YAML file. Defaults
// live in Default() only. The same holds for every section below.
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// WarehouseConfig holds connection parameters for the target store.
type WarehouseConfig struct {
	Host         string        `yaml:"host" envconfig:"HOST"`
	Port         int           `yaml:"port" envconfig:"PORT"`
	Name         string        `yaml:"name" envconfig:"NAME" validate:"required"`
	User         string        `yaml:"user" envconfig:"USER" validate:"required"`
	Password     string        `yaml:"password" envconfig:"PASSWORD"`
	SSLMode      string        `yaml:"ssl_mode" envconfig:"SSL_MODE"`
	MaxOpenConns int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
	ConnTimeout  time.Duration `yaml:"conn_timeout" envconfig:"CONN_TIMEOUT"`
	Migrate      bool          `yaml:"migrate" envconfig:"MIGRATE"`
}

// Dsn returns a PostgreSQL connection string.
func (c *WarehouseConfig) Dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}

// URL returns the DSN in URL form, as the migration tooling expects.
func (c *WarehouseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SourcesConfig declares the three raw inputs.
type SourcesConfig struct {
	Customers SourceConfig `yaml:"customers" envconfig:"CUSTOMERS"`
	Products  SourceConfig `yaml:"products" envconfig:"PRODUCTS"`
	Sales     SourceConfig `yaml:"sales" envconfig:"SALES"`
}

// SourceConfig declares one raw input file: its name, required columns,
// and scrubbing options. Every scrubbing step is independently
// toggleable here.
type SourceConfig struct {
	File            string            `yaml:"file" envconfig:"FILE" validate:"required"`
	RequiredColumns []string          `yaml:"required_columns" envconfig:"REQUIRED_COLUMNS" validate:"min=1"`
	TrimStrings     bool              `yaml:"trim_strings" envconfig:"TRIM_STRINGS"`
	StandardizeCase string            `yaml:"standardize_case" envconfig:"STANDARDIZE_CASE" validate:"omitempty,oneof=upper lower title"`
	DropDuplicates  []string          `yaml:"drop_duplicates_on" envconfig:"DROP_DUPLICATES_ON"`
	CoerceTypes     map[string]string `yaml:"coerce_types" envconfig:"COERCE_TYPES"`
	DropNullsIn     []string          `yaml:"drop_nulls_in" envconfig:"DROP_NULLS_IN"`
	ClipNegative    []string          `yaml:"clip_negative" envconfig:"CLIP_NEGATIVE"`
}

// TierConfig holds the ascending lifetime-value thresholds that split
// customers into Bronze/Silver/Gold/Platinum. A lifetime value equal to
// a threshold belongs to the higher tier.
type TierConfig struct {
	Silver   float64 `yaml:"silver" envconfig:"SILVER"`
	Gold     float64 `yaml:"gold" envconfig:"GOLD"`
	Platinum float64 `yaml:"platinum" envconfig:"PLATINUM"`
}

const envPrefix = "SALESDW"

// Default returns the configuration the pipeline runs with when no file
// or environment override is present. Source schemas mirror the known
// extract layout.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			InputDir:  "data/raw",
			OutputDir: "data/processed",
		},
		Warehouse: WarehouseConfig{
			Host:         "localhost",
			Port:         5432,
			Name:         "salesdw",
			User:         "salesdw",
			SSLMode:      "disable",
			MaxOpenConns: 5,
			MaxIdleConns: 2,
			ConnTimeout:  5 * time.Second,
			Migrate:      true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/etl.log",
		},
		Sources: SourcesConfig{
			Customers: SourceConfig{
				File:            "customers_data.csv",
				RequiredColumns: []string{"customer_id", "name", "region", "lifetime_value"},
				TrimStrings:     true,
				StandardizeCase: "title",
				DropDuplicates:  []string{"customer_id"},
				CoerceTypes: map[string]string{
					"customer_id":    "int",
					"lifetime_value": "float",
				},
				DropNullsIn: []string{"customer_id"},
			},
			Products: SourceConfig{
				File:            "products_data.csv",
				RequiredColumns: []string{"product_id", "product_name", "category"},
				TrimStrings:     true,
				StandardizeCase: "title",
				DropDuplicates:  []string{"product_id"},
				CoerceTypes: map[string]string{
					"product_id": "int",
				},
				DropNullsIn: []string{"product_id"},
			},
			Sales: SourceConfig{
				File:            "sales_data.csv",
				RequiredColumns: []string{"sale_id", "customer_id", "product_id", "sale_date", "sale_amount"},
				TrimStrings:     true,
				DropDuplicates:  []string{"sale_id"},
				CoerceTypes: map[string]string{
					"sale_id":     "int",
					"customer_id": "int",
					"product_id":  "int",
					"sale_date":   "date",
					"sale_amount": "float",
				},
				DropNullsIn:  []string{"customer_id", "product_id", "sale_date", "sale_amount"},
				ClipNegative: []string{"sale_amount"},
			},
		},
		Tiers: TierConfig{
			Silver:   1000,
			Gold:     5000,
			Platinum: 20000,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// if it exists, then environment overrides, then validation. An empty
// path means "no file, defaults plus environment only".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks structural validity plus the cross-field rules the
// tag language cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}

	if !(c.Tiers.Silver < c.Tiers.Gold && c.Tiers.Gold < c.Tiers.Platinum) {
		return fmt.Errorf("tier thresholds must ascend: silver=%v gold=%v platinum=%v",
			c.Tiers.Silver, c.Tiers.Gold, c.Tiers.Platinum)
	}

	for name, src := range map[string]SourceConfig{
		"customers": c.Sources.Customers,
		"products":  c.Sources.Products,
		"sales":     c.Sources.Sales,
	} {
		for col, kind := range src.CoerceTypes {
			if _, err := dataset.ParseKind(kind); err != nil {
				return fmt.Errorf("source %s: column %s: %w", name, col, err)
			}
		}
	}

	return nil
}
