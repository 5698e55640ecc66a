package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	AI        AIConfig        `mapstructure:"ai"`
	Interview InterviewConfig `mapstructure:"interview"`
	Output    OutputConfig    `mapstructure:"output"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Simulate  SimulateConfig  `mapstructure:"simulate"`
}

// AIConfig holds AI provider configuration.
type AIConfig struct {
	Provider   string `mapstructure:"provider"`    // "openai", "azure-openai", "ollama"
	Model      string `mapstructure:"model"`       // e.g., "gpt-4o"
	APIKey     string `mapstructure:"api_key"`     // Provider API key (env var takes precedence)
	Endpoint   string `mapstructure:"endpoint"`    // Custom endpoint URL (Azure resource or Ollama host)
	APIVersion string `mapstructure:"api_version"` // Azure OpenAI API version

	// Per-provider default models (used when Model is empty)
	OpenAIModel    string `mapstructure:"openai_model"`
	AzureModel     string `mapstructure:"azure_model"`
	OllamaModel    string `mapstructure:"ollama_model"`
	OllamaEndpoint string `mapstructure:"ollama_endpoint"`
}

// InterviewConfig holds interview orchestration configuration.
type InterviewConfig struct {
	DefaultScope        string `mapstructure:"default_scope"`         // "project", "process", "change_request"
	SubjectMaxQuestions int    `mapstructure:"subject_max_questions"` // Per-subject question cap (>= 1)
	ReviewMaxPasses     int    `mapstructure:"review_max_passes"`     // Review convergence pass cap (>= 1)
}

// OutputConfig holds specification export configuration.
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`         // Base directory for exported specs and diagrams
	RenderPDF  bool   `mapstructure:"render_pdf"`  // Attempt PDF export alongside markdown
	DiagramCmd string `mapstructure:"diagram_cmd"` // Graphviz command (default: "dot"); empty disables diagrams
}

// ArchiveConfig holds transcript archive configuration.
type ArchiveConfig struct {
	LogPath      string `mapstructure:"log_path"`      // JSONL transcript log
	DatabasePath string `mapstructure:"database_path"` // sqlite index used by the transcripts commands
	RedisURL     string `mapstructure:"redis_url"`     // Optional Redis mirror; empty disables mirroring
}

// SimulateConfig holds simulated-stakeholder configuration.
type SimulateConfig struct {
	PersonaFile string `mapstructure:"persona_file"` // Optional JSON persona override
}

// ValidScopes is the list of supported interview scopes.
var ValidScopes = []string{"project", "process", "change_request"}

// Load loads the configuration from file and environment variables.
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := expandPaths(config); err != nil {
		return nil, errors.Wrap(err, "failed to expand paths")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// NormalizeScope normalizes arbitrary user input into a valid scope value.
// Spaces and hyphens are treated as underscores. Returns an error for
// unsupported scopes; empty input falls back to the provided default.
func NormalizeScope(scope, fallback string) (string, error) {
	if strings.TrimSpace(scope) == "" {
		if fallback == "" {
			return "", errors.New("interview scope is required")
		}
		return fallback, nil
	}
	normalized := strings.ToLower(strings.TrimSpace(scope))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, valid := range ValidScopes {
		if normalized == valid {
			return normalized, nil
		}
	}
	return "", errors.Newf("unsupported interview scope %q: must be one of: %s",
		scope, strings.Join(ValidScopes, ", "))
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	if _, err := NormalizeScope(c.Interview.DefaultScope, ""); err != nil {
		return errors.Wrap(err, "interview.default_scope")
	}
	if c.Interview.SubjectMaxQuestions < 1 {
		return errors.New("interview.subject_max_questions must be at least 1")
	}
	if c.Interview.ReviewMaxPasses < 1 {
		return errors.New("interview.review_max_passes must be at least 1")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// AI defaults
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "") // Empty means use per-provider default
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.endpoint", "")
	viper.SetDefault("ai.api_version", "")
	viper.SetDefault("ai.openai_model", "gpt-4o")
	viper.SetDefault("ai.azure_model", "gpt-4o")
	viper.SetDefault("ai.ollama_model", "llama3.2")
	viper.SetDefault("ai.ollama_endpoint", "http://localhost:11434")

	// Interview defaults
	viper.SetDefault("interview.default_scope", "project")
	viper.SetDefault("interview.subject_max_questions", 3)
	viper.SetDefault("interview.review_max_passes", 3)

	// Output defaults
	viper.SetDefault("output.dir", filepath.Join(homeDir, "specforge", "outputs"))
	viper.SetDefault("output.render_pdf", true)
	viper.SetDefault("output.diagram_cmd", "dot")

	// Archive defaults (empty paths derive from output.dir at load time)
	viper.SetDefault("archive.log_path", "")
	viper.SetDefault("archive.database_path", "")
	viper.SetDefault("archive.redis_url", "")

	// Simulate defaults
	viper.SetDefault("simulate.persona_file", "")
}

// expandPaths expands ~ in paths and derives archive paths from the output dir.
func expandPaths(config *Config) error {
	var err error

	config.Output.Dir, err = expandPath(config.Output.Dir)
	if err != nil {
		return err
	}

	if config.Archive.LogPath == "" {
		config.Archive.LogPath = filepath.Join(config.Output.Dir, "transcripts.jsonl")
	}
	config.Archive.LogPath, err = expandPath(config.Archive.LogPath)
	if err != nil {
		return err
	}

	if config.Archive.DatabasePath == "" {
		config.Archive.DatabasePath = filepath.Join(config.Output.Dir, "transcripts.db")
	}
	config.Archive.DatabasePath, err = expandPath(config.Archive.DatabasePath)
	if err != nil {
		return err
	}

	config.Simulate.PersonaFile, err = expandPath(config.Simulate.PersonaFile)
	if err != nil {
		return err
	}

	return nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, path[1:]), nil
}
