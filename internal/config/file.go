package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for TOML, YAML and JSON files.
type fileConfig struct {
	Port               string `toml:"port" yaml:"port" json:"port"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute" yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	DefaultBudget      string `toml:"default_budget" yaml:"default_budget" json:"default_budget"`
	Currency           string `toml:"currency" yaml:"currency" json:"currency"`
	ExportDir          string `toml:"export_dir" yaml:"export_dir" json:"export_dir"`

	Storage struct {
		Backend    string `toml:"backend" yaml:"backend" json:"backend"`
		Timeout    string `toml:"timeout" yaml:"timeout" json:"timeout"`
		DataDir    string `toml:"data_dir" yaml:"data_dir" json:"data_dir"`
		SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path" json:"sqlite_path"`
		Redis      struct {
			Addr     string `toml:"addr" yaml:"addr" json:"addr"`
			Password string `toml:"password" yaml:"password" json:"password"`
			DB       int    `toml:"db" yaml:"db" json:"db"`
			Prefix   string `toml:"prefix" yaml:"prefix" json:"prefix"`
		} `toml:"redis" yaml:"redis" json:"redis"`
		S3 struct {
			Bucket  string `toml:"bucket" yaml:"bucket" json:"bucket"`
			Prefix  string `toml:"prefix" yaml:"prefix" json:"prefix"`
			Region  string `toml:"region" yaml:"region" json:"region"`
			Profile string `toml:"profile" yaml:"profile" json:"profile"`
		} `toml:"s3" yaml:"s3" json:"s3"`
	} `toml:"storage" yaml:"storage" json:"storage"`

	AMQP struct {
		URL      string `toml:"url" yaml:"url" json:"url"`
		Exchange string `toml:"exchange" yaml:"exchange" json:"exchange"`
		Queue    string `toml:"queue" yaml:"queue" json:"queue"`
	} `toml:"amqp" yaml:"amqp" json:"amqp"`

	Google struct {
		SpreadsheetID      string `toml:"spreadsheet_id" yaml:"spreadsheet_id" json:"spreadsheet_id"`
		SheetName          string `toml:"sheet_name" yaml:"sheet_name" json:"sheet_name"`
		ServiceAccountFile string `toml:"service_account_file" yaml:"service_account_file" json:"service_account_file"`
	} `toml:"google" yaml:"google" json:"google"`

	Log struct {
		Level  string `toml:"level" yaml:"level" json:"level"`
		Format string `toml:"format" yaml:"format" json:"format"`
	} `toml:"log" yaml:"log" json:"log"`
}

// readFile parses a TOML, YAML or JSON file, chosen by extension.
func readFile(path string) (*fileConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}
	return &fc, nil
}
