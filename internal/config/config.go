package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	BodyLimitMB         int    `yaml:"body_limit_mb"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
}

// PathsConfig locates the corpus, the persisted permanent index and the
// per-session upload areas.
type PathsConfig struct {
	DocsDir    string `yaml:"docs_dir"`
	IndexDir   string `yaml:"index_dir"`
	UploadsDir string `yaml:"uploads_dir"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	FilePath string `yaml:"file_path"`
	Prod     bool   `yaml:"prod"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	Model        string `yaml:"model"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// CompletionConfig configures the completion-service client. Temperature is
// a pointer so an explicit 0 in the file survives defaulting.
type CompletionConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	TimeoutSecs int      `yaml:"timeout_secs"`
	Referer     string   `yaml:"referer"`
	Title       string   `yaml:"title"`
}

// ChunkerConfig configures how documents are split into passages (characters).
// Overlap is a pointer so an explicit 0 (no overlap) survives defaulting.
type ChunkerConfig struct {
	Size    int  `yaml:"size"`
	Overlap *int `yaml:"overlap"`
}

// RetrievalConfig names the merge and re-rank constants. These were tuned by
// hand and are the most likely values to be revised.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`
	SearchK       int     `yaml:"search_k"`
	SessionWeight float64 `yaml:"session_weight"`
	OriginOffset  int     `yaml:"origin_offset"`
	// BoostNudge is a pointer so an explicit 0 (boost disabled) survives
	// defaulting.
	BoostNudge  *float64 `yaml:"boost_nudge"`
	MinTokenLen int      `yaml:"min_token_len"`
}

// CitationsConfig configures the post-hoc citation selector. MinOverlap is a
// pointer so an explicit 0 (cite every retrieved source) survives defaulting.
type CitationsConfig struct {
	KeyTerms   []string `yaml:"key_terms"`
	MinOverlap *int     `yaml:"min_overlap"`
}

// PromptConfig shapes what the orchestrator sends to the completion service.
type PromptConfig struct {
	Persona             string `yaml:"persona"`
	MaxContextPassages  int    `yaml:"max_context_passages"`
	MaxContextChars     int    `yaml:"max_context_chars"`
	HistoryWindowTurns  int    `yaml:"history_window_turns"`
	SummaryMaxSentences int    `yaml:"summary_max_sentences"`
}

// SessionsConfig sets the session lifecycle policy. A TTL of zero keeps idle
// sessions until they are cleared explicitly.
type SessionsConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Paths      PathsConfig      `yaml:"paths"`
	Logging    LoggingConfig    `yaml:"logging"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Completion CompletionConfig `yaml:"completion"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Citations  CitationsConfig  `yaml:"citations"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Sessions   SessionsConfig   `yaml:"sessions"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/docchat/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docchat", "config.yaml"), nil
}

// DefaultKeyTerms is the vocabulary used both to recognize grounded queries
// and to match citations. Property-management domain by default.
var DefaultKeyTerms = []string{
	"rent", "lease", "leasing", "payment", "pay", "late", "grace", "period",
	"due", "maintenance", "repair", "unit", "apartment", "policy", "screening",
	"pet", "deposit", "renewal", "community", "hoa", "notice", "eviction",
	"fee", "utilities", "parking", "amenities", "resident", "tenant",
	"application",
}

func ptr[T any](v T) *T { return &v }

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = 25
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = 10
	}
	if cfg.Paths.DocsDir == "" {
		cfg.Paths.DocsDir = "data/documents"
	}
	if cfg.Paths.IndexDir == "" {
		cfg.Paths.IndexDir = "storage/index"
	}
	if cfg.Paths.UploadsDir == "" {
		cfg.Paths.UploadsDir = "storage/uploads"
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = "logs/docchat.log"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.CacheTTLSecs == 0 {
			cfg.Embedder.OpenAI.CacheTTLSecs = 300
		}
	}
	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Completion.APIKeyEnv == "" {
		cfg.Completion.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "google/gemma-2-9b-it:free"
	}
	if cfg.Completion.Temperature == nil {
		cfg.Completion.Temperature = ptr(0.3)
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = 60
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 1000
	}
	if cfg.Chunker.Overlap == nil {
		cfg.Chunker.Overlap = ptr(200)
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Retrieval.SearchK < cfg.Retrieval.TopK {
		cfg.Retrieval.SearchK = cfg.Retrieval.TopK
	}
	if cfg.Retrieval.SearchK < 4 {
		cfg.Retrieval.SearchK = 4
	}
	if cfg.Retrieval.SessionWeight == 0 {
		cfg.Retrieval.SessionWeight = 0.5
	}
	if cfg.Retrieval.OriginOffset == 0 {
		cfg.Retrieval.OriginOffset = 100
	}
	if cfg.Retrieval.BoostNudge == nil {
		cfg.Retrieval.BoostNudge = ptr(0.5)
	}
	if cfg.Retrieval.MinTokenLen == 0 {
		cfg.Retrieval.MinTokenLen = 3
	}
	if len(cfg.Citations.KeyTerms) == 0 {
		cfg.Citations.KeyTerms = append([]string(nil), DefaultKeyTerms...)
	}
	if cfg.Citations.MinOverlap == nil {
		cfg.Citations.MinOverlap = ptr(2)
	}
	if cfg.Prompt.Persona == "" {
		cfg.Prompt.Persona = "Yotta, a helpful property management assistant"
	}
	if cfg.Prompt.MaxContextPassages == 0 {
		cfg.Prompt.MaxContextPassages = 2
	}
	if cfg.Prompt.MaxContextChars == 0 {
		cfg.Prompt.MaxContextChars = 1500
	}
	if cfg.Prompt.HistoryWindowTurns == 0 {
		cfg.Prompt.HistoryWindowTurns = 10
	}
	if cfg.Prompt.SummaryMaxSentences == 0 {
		cfg.Prompt.SummaryMaxSentences = 3
	}
}
