package model

import "time"

// Config holds all static configuration. It is built once at startup and
// treated as read-only afterwards, so concurrent parses share it without locks.
type Config struct {
	// Extraction configuration (overridable by the configuration document)
	SectionHeaders       []string                            `yaml:"sectionHeaders" mapstructure:"sectionHeaders"`
	Patterns             map[string]map[string]PatternConfig `yaml:"patterns" mapstructure:"patterns"`
	DateFormats          []string                            `yaml:"dateFormats" mapstructure:"dateFormats"`
	BooleanValues        BooleanValues                       `yaml:"booleanValues" mapstructure:"booleanValues"`
	AttachmentExtensions []string                            `yaml:"attachmentExtensions" mapstructure:"attachmentExtensions"`
	FuzzyMatchFields     []string                            `yaml:"fuzzyMatchFields" mapstructure:"fuzzyMatchFields"`
	FuzzyThreshold       float64                             `yaml:"fuzzyThreshold" mapstructure:"fuzzyThreshold"`
	KnownValues          map[string][]string                 `yaml:"knownValues" mapstructure:"knownValues"`
	PostProcessingRules  []Rule                              `yaml:"postProcessingRules" mapstructure:"postProcessingRules"`

	// Host configuration
	Strategy     string            `yaml:"strategy" mapstructure:"strategy"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	LocalLLM     LLMConfig         `yaml:"localLLM" mapstructure:"localLLM"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rateLimiting" mapstructure:"rateLimiting"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// PatternConfig is one field rule as written in a configuration document
type PatternConfig struct {
	Primary  string `yaml:"primary" mapstructure:"primary"`
	Fallback string `yaml:"fallback,omitempty" mapstructure:"fallback"`
}

// BooleanValues are the token sets of the boolean-from-text normalizer
type BooleanValues struct {
	Positive []string `yaml:"positive" mapstructure:"positive"`
	Negative []string `yaml:"negative" mapstructure:"negative"`
}

// Rule sets Field to ActionValue when ConditionField equals ConditionValue
type Rule struct {
	Field          string `yaml:"field" mapstructure:"field"`
	ConditionField string `yaml:"conditionField" mapstructure:"conditionField"`
	ConditionValue string `yaml:"conditionValue" mapstructure:"conditionValue"`
	ActionValue    string `yaml:"actionValue" mapstructure:"actionValue"`
}

// LLMConfig configures a completion endpoint
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, ollama, local, anthropic
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"apiKey,omitempty" mapstructure:"apiKey"`
	BaseURL     string  `yaml:"baseURL,omitempty" mapstructure:"baseURL"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"maxTokens" mapstructure:"maxTokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxRetries  int     `yaml:"maxRetries" mapstructure:"maxRetries"`
	HTTPProxy   string  `yaml:"httpProxy,omitempty" mapstructure:"httpProxy"`
	HTTPSProxy  string  `yaml:"httpsProxy,omitempty" mapstructure:"httpsProxy"`
	NoProxy     string  `yaml:"noProxy,omitempty" mapstructure:"noProxy"`
}

// CacheConfig configures the host-side record cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // empty disables the disk layer
}

// ConcurrencyConfig configures batch parsing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles calls to completion endpoints
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond" mapstructure:"requestsPerSecond"`
	BurstSize         int     `yaml:"burstSize" mapstructure:"burstSize"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		SectionHeaders:       append([]string{}, DefaultSectionHeaders...),
		Patterns:             DefaultPatterns(),
		DateFormats:          append([]string{}, DefaultDateFormats...),
		BooleanValues:        DefaultBooleanValues(),
		AttachmentExtensions: append([]string{}, DefaultAttachmentExtensions...),
		FuzzyMatchFields:     []string{"Insurance Company", "Handler", "Adjuster Name", "Policy #"},
		FuzzyThreshold:       80,
		KnownValues:          DefaultKnownValues(),
		PostProcessingRules: []Rule{
			{Field: "Adjuster Email", ConditionField: "Adjuster Email", ConditionValue: NA, ActionValue: "unknown@example.com"},
		},
		Strategy: "rule_based",
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     30,
			MaxTokens:   1500,
			Temperature: 0.2,
			MaxRetries:  3,
		},
		LocalLLM: LLMConfig{
			Provider:    "local",
			Timeout:     60,
			MaxTokens:   1500,
			Temperature: 0.2,
			MaxRetries:  3,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultDateFormats are Go reference-time layouts tried in order.
// Month-first numeric layouts precede day-first ones.
var DefaultDateFormats = []string{
	"01/02/2006",
	"02/01/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006-01-02",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
	"1-2-2006",
	"01-02-06",
	"2006.01.02",
	"02.01.2006",
	"20060102",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04 PM",
}

// DefaultAttachmentExtensions are the file extensions accepted as attachments.
var DefaultAttachmentExtensions = []string{
	".pdf", ".docx", ".doc", ".xlsx", ".xls", ".zip", ".png", ".jpg", ".jpeg", ".gif", ".txt",
}

// DefaultBooleanValues returns the built-in boolean token sets.
func DefaultBooleanValues() BooleanValues {
	return BooleanValues{
		Positive: []string{"yes", "y", "true", "t", "1", "x", "[x]", "[ x ]", "(x)", "( x )"},
		Negative: []string{"no", "n", "false", "f", "0", "[ ]", "[]", "( )", "()", "[n/a]", "[ n/a ]", "(n/a)", "( n/a )"},
	}
}

// DefaultKnownValues returns the built-in fuzzy-fill corpus, keyed by field name.
func DefaultKnownValues() map[string][]string {
	return map[string][]string{
		"Insurance Company": {
			"State Farm", "Allstate", "Geico", "Progressive", "Nationwide",
			"Liberty Mutual", "Farmers", "Travelers", "American Family", "USAA",
		},
		"Handler": {
			"John Doe", "Jane Smith", "Emily Davis", "Michael Brown", "Sarah Johnson", "David Wilson",
		},
		"Adjuster Name": {
			"Michael Brown", "Sarah Johnson", "David Wilson", "Laura Martinez", "James Anderson",
		},
		"Policy #": {
			"ABC123", "XYZ789", "DEF456", "GHI101", "JKL202",
		},
	}
}

// Line-bounded capture; patterns compile dot-all, so a bare (.*) would run
// to the end of the section.
const lineValue = `[ \t]*:[ \t]*([^\n]*)`

// AttachmentsField names the attachment rule; it is the one rule that does
// not map to a string field of the Record.
const AttachmentsField = "Attachment(s)"

// DefaultPatterns returns the built-in field rules keyed by section, then field name.
func DefaultPatterns() map[string]map[string]PatternConfig {
	return map[string]map[string]PatternConfig{
		SectionRequestingParty: {
			"Insurance Company": {Primary: `Insurance Company` + lineValue, Fallback: `(?:Carrier|Insurer)` + lineValue},
			"Handler":           {Primary: `Handler` + lineValue},
			"Carrier Claim Number": {
				Primary:  `Carrier Claim (?:Number|No\.?|#)` + lineValue,
				Fallback: `Claim[ \t]*(?:Number|No\.?|#)` + lineValue,
			},
		},
		SectionInsuredInformation: {
			"Name":            {Primary: `(?m)^[ \t]*(?:Insured )?Name` + lineValue},
			"Contact #":       {Primary: `Contact[ \t]*#` + lineValue, Fallback: `(?:Contact|Phone)[ \t]*(?:Number|No\.?)` + lineValue},
			"Loss Address":    {Primary: `Loss Address` + lineValue, Fallback: `(?m)^[ \t]*Address` + lineValue},
			"Public Adjuster": {Primary: `Public Adjuster` + lineValue},
			"Owner or Tenant": {
				Primary:  `Is the insured an Owner or a Tenant of the loss location\?[ \t]*:?[ \t]*(Yes|No|Owner|Tenant)\b`,
				Fallback: `Owner or Tenant` + lineValue,
			},
		},
		SectionAdjusterInformation: {
			"Adjuster Name": {Primary: `Adjuster Name` + lineValue},
			"Adjuster Phone Number": {
				Primary:  `Adjuster Phone(?: Number)?[ \t]*:[ \t]*(\+?\d[\d \t\-().]{7,}\d)`,
				Fallback: `(\+?1?[ \t.\-]?\(?\d{3}\)?[ \t.\-]?\d{3}[ \t.\-]?\d{4})`,
			},
			"Adjuster Email": {
				Primary:  `Adjuster Email[ \t]*:[ \t]*([\w.+\-]+@[\w.\-]+\.\w+)`,
				Fallback: `([\w.+\-]+@[\w.\-]+\.\w+)`,
			},
			"Job Title": {Primary: `Job Title` + lineValue},
			"Address":   {Primary: `(?m)^[ \t]*(?:Adjuster )?Address` + lineValue},
			"Policy #": {
				Primary:  `Policy[ \t]*#[ \t]*:[ \t]*(\w[\w\-]*)`,
				Fallback: `Policy[ \t]*(?:Number|No\.?)[ \t]*:[ \t]*(\w[\w\-]*)`,
			},
		},
		SectionAssignmentInformation: {
			"Date of Loss/Occurrence": {
				Primary:  `Date of Loss/Occurrence[ \t]*:[ \t]*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`,
				Fallback: `Date of Loss(?:/Occurrence)?` + lineValue,
			},
			"Cause of loss":                      {Primary: `Cause of loss` + lineValue},
			"Facts of Loss":                      {Primary: `Facts of Loss` + lineValue},
			"Loss Description":                   {Primary: `Loss Description` + lineValue},
			"Residence Occupied During Loss":     {Primary: `Residence Occupied During Loss\??` + lineValue},
			"Was Someone home at time of damage": {Primary: `Was Someone home at time of damage\??` + lineValue},
			"Repair or Mitigation Progress":      {Primary: `Repair or Mitigation Progress` + lineValue},
			"Type":                               {Primary: `(?m)^[ \t]*Type` + lineValue},
			"Inspection type":                    {Primary: `Inspection type` + lineValue},
		},
		SectionAdditionalDetails: {
			"Additional details/Special Instructions": {Primary: `Additional details/Special Instructions` + lineValue},
		},
		SectionAttachments: {
			AttachmentsField: {Primary: `Attachment\(s\)` + lineValue, Fallback: `Attachments?` + lineValue},
		},
	}
}
