package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RoutesConfig holds the path each pipeline is mounted on.
type RoutesConfig struct {
	Analyze string `yaml:"analyze"`
	Mindmap string `yaml:"mindmap"`
	Solve   string `yaml:"solve"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type LLMConfig struct {
	DefaultProvider string          `yaml:"defaultProvider"`
	TimeoutSeconds  int             `yaml:"timeoutSeconds"`
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Anthropic       AnthropicConfig `yaml:"anthropic"`
	Google          GoogleLLMConfig `yaml:"google"`
}

// PromptsConfig overrides the built-in instruction templates. Empty values
// keep the defaults.
type PromptsConfig struct {
	Analyze string `yaml:"analyze"`
	Mindmap string `yaml:"mindmap"`
	Solve   string `yaml:"solve"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Routes  RoutesConfig  `yaml:"routes"`
	Logging LoggingConfig `yaml:"logging"`
	LLM     LLMConfig     `yaml:"llm"`
	Prompts PromptsConfig `yaml:"prompts"`

	// modelOverride follows the provider selection (LLM_MODEL or --model).
	modelOverride string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5000},
		Routes: RoutesConfig{
			Analyze: "/analyze",
			Mindmap: "/mindmap",
			Solve:   "/solve",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			DefaultProvider: "google",
			TimeoutSeconds:  120,
			OpenAI:          OpenAIConfig{Model: "gpt-4o-mini"},
			Anthropic:       AnthropicConfig{Model: "claude-3-5-haiku-latest"},
			Google:          GoogleLLMConfig{Model: "gemini-2.0-flash"},
		},
	}
}

// Load reads the YAML file at path on top of Default and then applies
// environment overrides. A missing file is only an error when required is
// true.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to decode config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.SetProvider(v)
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Google.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.LLM.Google.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.OpenAI.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.Anthropic.APIKey = v
	}

	// LLM_MODEL applies to whichever provider ends up selected.
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.SetModel(v)
	}
}

// fillDefaults restores defaults that a partial YAML file blanked out.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Routes.Analyze == "" {
		c.Routes.Analyze = d.Routes.Analyze
	}
	if c.Routes.Mindmap == "" {
		c.Routes.Mindmap = d.Routes.Mindmap
	}
	if c.Routes.Solve == "" {
		c.Routes.Solve = d.Routes.Solve
	}
	if c.LLM.DefaultProvider == "" {
		c.LLM.DefaultProvider = d.LLM.DefaultProvider
	}
}

// SetProvider selects the provider. A model set through SetModel moves to
// the new provider.
func (c *Config) SetProvider(provider string) {
	c.LLM.DefaultProvider = strings.ToLower(strings.TrimSpace(provider))
	if c.modelOverride != "" {
		c.setActiveModel(c.modelOverride)
	}
}

// SetModel overrides the model of the selected provider, including one
// selected later through SetProvider.
func (c *Config) SetModel(model string) {
	c.modelOverride = model
	c.setActiveModel(model)
}

func (c *Config) setActiveModel(model string) {
	switch c.LLM.DefaultProvider {
	case "openai":
		c.LLM.OpenAI.Model = model
	case "anthropic":
		c.LLM.Anthropic.Model = model
	default:
		c.LLM.Google.Model = model
	}
}

// ActiveModel returns the model of the selected provider.
func (c *Config) ActiveModel() string {
	switch c.LLM.DefaultProvider {
	case "openai":
		return c.LLM.OpenAI.Model
	case "anthropic":
		return c.LLM.Anthropic.Model
	default:
		return c.LLM.Google.Model
	}
}

// Validate reports configuration that would make every model call fail.
func (c *Config) Validate() error {
	var key, model string
	switch c.LLM.DefaultProvider {
	case "google":
		key, model = c.LLM.Google.APIKey, c.LLM.Google.Model
	case "openai":
		key, model = c.LLM.OpenAI.APIKey, c.LLM.OpenAI.Model
	case "anthropic":
		key, model = c.LLM.Anthropic.APIKey, c.LLM.Anthropic.Model
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.DefaultProvider)
	}
	if key == "" {
		return fmt.Errorf("%s llm provider has no api key configured", c.LLM.DefaultProvider)
	}
	if model == "" {
		return fmt.Errorf("%s llm provider has no model configured", c.LLM.DefaultProvider)
	}
	return nil
}
