package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no --config flag is given; it may be absent.
const DefaultConfigPath = "config.yaml"

// Config holds all application configuration
type Config struct {
	Paths    PathsConfig
	Values   ValuesConfig
	Document DocumentConfig
	Workers  int
}

// PathsConfig holds the input and output locations of a run
type PathsConfig struct {
	PDFsFolder      string
	RosterSheet     string
	OutputExcel     string
	ErrorReport     string
	PDFSummary      string
	ArchiveDSN      string
	MetricsTextfile string
}

// ValuesConfig holds the fixed monetary constants of a run
type ValuesConfig struct {
	DeliveryValue decimal.Decimal
	DailyBonus    decimal.Decimal
}

// DocumentConfig holds text-extraction settings
type DocumentConfig struct {
	Backend   string // auto, pdftotext or native
	Pdftotext string
	Timeout   time.Duration
	// KeepBlankLines keeps blank text lines so they can end a bonus section.
	KeepBlankLines bool
}

// fileConfig mirrors the YAML layout of the config file.
type fileConfig struct {
	Paths struct {
		PDFsFolder      string `yaml:"pdfs_folder"`
		TypeSheet       string `yaml:"type_sheet"`
		OutputExcel     string `yaml:"output_excel"`
		ErrorReport     string `yaml:"error_report"`
		PDFSummary      string `yaml:"pdf_summary"`
		ArchiveDSN      string `yaml:"archive_dsn"`
		MetricsTextfile string `yaml:"metrics_textfile"`
	} `yaml:"paths"`
	Values struct {
		DeliveryValue *float64 `yaml:"delivery_value"`
		DailyBonus    *float64 `yaml:"daily_bonus"`
	} `yaml:"values"`
	Document struct {
		Backend        string `yaml:"backend"`
		Pdftotext      string `yaml:"pdftotext"`
		Timeout        string `yaml:"timeout"`
		KeepBlankLines *bool  `yaml:"keep_blank_lines"`
	} `yaml:"document"`
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the configuration used before any file, env or flag is applied.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			OutputExcel: "fechamento.xlsx",
			ErrorReport: "error_report.log",
		},
		Document: DocumentConfig{
			Backend:        "auto",
			Pdftotext:      "pdftotext",
			Timeout:        time.Minute,
			KeepBlankLines: true,
		},
		Workers: 4,
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path and
// environment variables, in that order. A missing file is only an error when
// required is true.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyFile(data); err != nil {
				return nil, NewAppError(CodeConfig, fmt.Sprintf("invalid config file %s", path), err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, NewAppError(CodeConfig, fmt.Sprintf("cannot read config file %s", path), err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("convert yaml: %w", err)
	}
	if err := ValidateJSONAgainstSchema(ConfigJSONSchema(), asJSON); err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	setIf(&c.Paths.PDFsFolder, fc.Paths.PDFsFolder)
	setIf(&c.Paths.RosterSheet, fc.Paths.TypeSheet)
	setIf(&c.Paths.OutputExcel, fc.Paths.OutputExcel)
	setIf(&c.Paths.ErrorReport, fc.Paths.ErrorReport)
	setIf(&c.Paths.PDFSummary, fc.Paths.PDFSummary)
	setIf(&c.Paths.ArchiveDSN, fc.Paths.ArchiveDSN)
	setIf(&c.Paths.MetricsTextfile, fc.Paths.MetricsTextfile)
	if fc.Values.DeliveryValue != nil {
		c.Values.DeliveryValue = decimal.NewFromFloat(*fc.Values.DeliveryValue)
	}
	if fc.Values.DailyBonus != nil {
		c.Values.DailyBonus = decimal.NewFromFloat(*fc.Values.DailyBonus)
	}
	setIf(&c.Document.Backend, fc.Document.Backend)
	setIf(&c.Document.Pdftotext, fc.Document.Pdftotext)
	if fc.Document.Timeout != "" {
		d, err := time.ParseDuration(fc.Document.Timeout)
		if err != nil {
			return fmt.Errorf("document.timeout: %w", err)
		}
		c.Document.Timeout = d
	}
	if fc.Document.KeepBlankLines != nil {
		c.Document.KeepBlankLines = *fc.Document.KeepBlankLines
	}
	if fc.Workers > 0 {
		c.Workers = fc.Workers
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Paths.PDFsFolder = getEnv("SETTLEMENT_PDFS_FOLDER", c.Paths.PDFsFolder)
	c.Paths.RosterSheet = getEnv("SETTLEMENT_TYPE_SHEET", c.Paths.RosterSheet)
	c.Paths.OutputExcel = getEnv("SETTLEMENT_OUTPUT_EXCEL", c.Paths.OutputExcel)
	c.Paths.ErrorReport = getEnv("SETTLEMENT_ERROR_REPORT", c.Paths.ErrorReport)
	c.Paths.PDFSummary = getEnv("SETTLEMENT_PDF_SUMMARY", c.Paths.PDFSummary)
	c.Paths.ArchiveDSN = getEnv("SETTLEMENT_ARCHIVE_DSN", c.Paths.ArchiveDSN)
	c.Paths.MetricsTextfile = getEnv("SETTLEMENT_METRICS_TEXTFILE", c.Paths.MetricsTextfile)
	c.Values.DeliveryValue = getEnvAsDecimal("SETTLEMENT_DELIVERY_VALUE", c.Values.DeliveryValue)
	c.Values.DailyBonus = getEnvAsDecimal("SETTLEMENT_DAILY_BONUS", c.Values.DailyBonus)
	c.Document.Backend = getEnv("SETTLEMENT_PDF_BACKEND", c.Document.Backend)
	c.Document.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Document.Pdftotext)
	c.Document.Timeout = getEnvAsDuration("SETTLEMENT_DOCUMENT_TIMEOUT", c.Document.Timeout)
	c.Document.KeepBlankLines = getEnvAsBool("SETTLEMENT_KEEP_BLANK_LINES", c.Document.KeepBlankLines)
	c.Workers = getEnvAsInt("SETTLEMENT_WORKERS", c.Workers)
}

// ConfigJSONSchema returns the JSON-Schema the YAML config file must satisfy.
func ConfigJSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"paths": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"pdfs_folder":      str,
					"type_sheet":       str,
					"output_excel":     str,
					"error_report":     str,
					"pdf_summary":      str,
					"archive_dsn":      str,
					"metrics_textfile": str,
				},
			},
			"values": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"delivery_value": map[string]any{"type": "number", "exclusiveMinimum": 0},
					"daily_bonus":    map[string]any{"type": "number", "minimum": 0},
				},
			},
			"document": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"backend":          map[string]any{"enum": []any{"auto", "pdftotext", "native"}},
					"pdftotext":        str,
					"timeout":          str,
					"keep_blank_lines": map[string]any{"type": "boolean"},
				},
			},
			"workers": map[string]any{"type": "integer", "minimum": 1},
		},
	}
}

// Validate checks the merged configuration before a run starts.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("paths.pdfs_folder", c.Paths.PDFsFolder, Required).
		Field("paths.type_sheet", c.Paths.RosterSheet, Required).
		Field("paths.output_excel", c.Paths.OutputExcel, Required).
		Field("values.delivery_value", c.Values.DeliveryValue, Positive).
		Field("values.daily_bonus", c.Values.DailyBonus, NonNegative).
		Field("document.backend", c.Document.Backend, OneOf("auto", "pdftotext", "native")).
		Field("workers", c.Workers, AtLeastOne)
	if err := v.Error(); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
