package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"forestqc/internal/refdata"
)

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Check   CheckConfig   `yaml:"check" envconfig:"CHECK"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig locates the reference tables and the output directory.
// Empty reference paths disable the checks that need them.
type PathsConfig struct {
	TreeSpeciesList string `yaml:"tree_species_list" envconfig:"TREE_SPECIES_LIST"`
	SeedSpeciesList string `yaml:"seed_species_list" envconfig:"SEED_SPECIES_LIST"`
	TaxonDict       string `yaml:"taxon_dict" envconfig:"TAXON_DICT"`
	MeshXY          string `yaml:"mesh_xy" envconfig:"MESH_XY"`
	TrapList        string `yaml:"trap_list" envconfig:"TRAP_LIST"`
	ExceptionList   string `yaml:"exception_list" envconfig:"EXCEPTION_LIST"`
	// OutputDir receives reports and exports. Empty writes next to each
	// input file.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
}

// CheckConfig tunes the validation rules.
type CheckConfig struct {
	// Thorough additionally reports non-standard local species names on
	// tree data.
	Thorough bool `yaml:"thorough" envconfig:"THOROUGH"`
	// Alpha is the significance level of the weight outlier test.
	Alpha float64 `yaml:"alpha" envconfig:"ALPHA" validate:"gt=0,lt=1"`
	// CommentChar marks comment rows by their first cell prefix.
	CommentChar string `yaml:"comment_char" envconfig:"COMMENT_CHAR"`
	// Encoding of CSV input files.
	Encoding string `yaml:"encoding" envconfig:"ENCODING"`
	// MaxConcurrency bounds the number of files processed in parallel.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" validate:"gte=1"`
}

// ExportConfig tunes the CSV export.
type ExportConfig struct {
	Encoding     string `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=utf-8 utf-8-sig shift-jis"`
	NaRep        string `yaml:"na_rep" envconfig:"NA_REP"`
	KeepComments bool   `yaml:"keep_comments" envconfig:"KEEP_COMMENTS"`
	Cleaning     bool   `yaml:"cleaning" envconfig:"CLEANING"`
	// AddStatus appends growth-state columns to tree data.
	AddStatus bool `yaml:"add_status" envconfig:"ADD_STATUS"`
	// AddSciname appends the scientific name from the species dictionary.
	AddSciname bool `yaml:"add_sciname" envconfig:"ADD_SCINAME"`
	// AddClass appends the higher classification from the species
	// dictionary.
	AddClass bool `yaml:"add_class" envconfig:"ADD_CLASS"`
	// Suffix is appended to output file names, ahead of any collision
	// counter.
	Suffix string `yaml:"suffix" envconfig:"SUFFIX"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "text",
			Output:   "console",
			FilePath: "logs/forestqc.log",
		},
		Check: CheckConfig{
			Alpha:          0.01,
			CommentChar:    "#",
			MaxConcurrency: 4,
		},
		Export: ExportConfig{
			Encoding:     "utf-8",
			KeepComments: true,
			Cleaning:     true,
		},
	}
}

// Load builds the configuration from the defaults, an optional YAML file
// and MSF_* environment variables, in increasing precedence. An empty
// path probes the usual config file locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("MSF", cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, e := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q", e.Namespace(), e.Tag())
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}

// RefPaths translates the configured reference table locations.
func (c *Config) RefPaths() refdata.Paths {
	return refdata.Paths{
		TreeSpeciesList: c.Paths.TreeSpeciesList,
		SeedSpeciesList: c.Paths.SeedSpeciesList,
		TaxonDict:       c.Paths.TaxonDict,
		MeshXY:          c.Paths.MeshXY,
		TrapList:        c.Paths.TrapList,
		ExceptionList:   c.Paths.ExceptionList,
	}
}

// findConfigFile probes the usual config file locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
