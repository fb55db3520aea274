// Package config loads the optional override document and overlays it on
// the built-in defaults.
//
// Overlay rules: scalar keys and lists replace the default outright;
// patterns merge per (section, field) and knownValues merge per field, so a
// document only names what it changes. Keys are matched case-insensitively
// because viper lower-cases them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/logging"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/postprocess"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ASSIGNPARSE_STRATEGY.
const EnvPrefix = "ASSIGNPARSE"

// DefaultPath returns $HOME/.assignparse/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".assignparse", "config.yaml"), nil
}

// Configure sets the env prefix and key mapping on v.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadFile reads the document at path (YAML or JSON by extension) and
// returns the effective configuration.
func LoadFile(path string) (*model.Config, error) {
	v := viper.New()
	Configure(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, model.ConfigError("config.load", fmt.Sprintf("read %s", path), err)
	}
	return Load(v)
}

// Load overlays whatever v has read (document, env, bound flags) on the
// defaults and validates the result.
func Load(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := overlay(v, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlay(v *viper.Viper, cfg *model.Config) error {
	decode := func(key string, target any) error {
		if !v.IsSet(key) {
			return nil
		}
		if err := v.UnmarshalKey(key, target); err != nil {
			return model.ConfigError("config.load", fmt.Sprintf("decode %q", key), err)
		}
		return nil
	}
	replace := func(key string, target *[]string) error {
		if !v.IsSet(key) {
			return nil
		}
		var list []string
		if err := decode(key, &list); err != nil {
			return err
		}
		*target = list
		return nil
	}

	var errs []error
	errs = append(errs,
		replace("sectionHeaders", &cfg.SectionHeaders),
		replace("dateFormats", &cfg.DateFormats),
		replace("booleanValues.positive", &cfg.BooleanValues.Positive),
		replace("booleanValues.negative", &cfg.BooleanValues.Negative),
		replace("attachmentExtensions", &cfg.AttachmentExtensions),
		replace("fuzzyMatchFields", &cfg.FuzzyMatchFields),
	)

	if v.IsSet("fuzzyThreshold") {
		cfg.FuzzyThreshold = v.GetFloat64("fuzzyThreshold")
	}

	if v.IsSet("postProcessingRules") {
		var rules []model.Rule
		errs = append(errs, decode("postProcessingRules", &rules))
		cfg.PostProcessingRules = rules
	}

	var patterns map[string]map[string]model.PatternConfig
	errs = append(errs, decode("patterns", &patterns))
	mergePatterns(cfg.Patterns, patterns)

	var known map[string][]string
	errs = append(errs, decode("knownValues", &known))
	mergeKnownValues(cfg.KnownValues, known)

	if v.IsSet("strategy") {
		cfg.Strategy = strings.TrimSpace(v.GetString("strategy"))
	}
	errs = append(errs,
		decode("llm", &cfg.LLM),
		decode("localLLM", &cfg.LocalLLM),
		decode("cache", &cfg.Cache),
		decode("concurrency", &cfg.Concurrency),
		decode("rateLimiting", &cfg.RateLimiting),
		decode("logging", &cfg.Logging),
	)
	return errors.Join(errs...)
}

// mergePatterns replaces default rules field by field. Unknown names are
// kept verbatim so rule compilation reports them.
func mergePatterns(dst, src map[string]map[string]model.PatternConfig) {
	for rawSection, fields := range src {
		section := model.CanonicalSection(rawSection)
		if dst[section] == nil {
			dst[section] = map[string]model.PatternConfig{}
		}
		for rawField, pc := range fields {
			dst[section][canonicalField(section, rawField)] = pc
		}
	}
}

func canonicalField(section, name string) string {
	if section == model.SectionAttachments && strings.EqualFold(strings.TrimSpace(name), model.AttachmentsField) {
		return model.AttachmentsField
	}
	if f, ok := model.FieldByName(name); ok {
		return f.Name
	}
	return name
}

func mergeKnownValues(dst, src map[string][]string) {
	for name, values := range src {
		key := name
		if f, ok := model.FieldByName(name); ok {
			key = f.Name
		}
		// Drop any differently-cased entry for the same field.
		for existing := range dst {
			if existing != key && strings.EqualFold(existing, key) {
				delete(dst, existing)
			}
		}
		dst[key] = values
	}
}

// Validate reports the first configuration error in cfg.
func Validate(cfg *model.Config) error {
	if _, err := extract.CompileRules(cfg.Patterns); err != nil {
		return err
	}
	if err := postprocess.ValidateRules(cfg.PostProcessingRules); err != nil {
		return err
	}
	for _, name := range cfg.FuzzyMatchFields {
		if _, ok := model.FieldByName(name); !ok {
			return model.ConfigError("config.validate", fmt.Sprintf("unknown fuzzy match field %q", name), nil)
		}
	}
	if cfg.FuzzyThreshold < 0 || cfg.FuzzyThreshold > 100 {
		return model.ConfigError("config.validate", fmt.Sprintf("fuzzyThreshold %v outside 0..100", cfg.FuzzyThreshold), nil)
	}
	if cfg.Concurrency.Workers < 0 {
		return model.ConfigError("config.validate", "concurrency.workers must not be negative", nil)
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}
	return nil
}
