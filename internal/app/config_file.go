package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema.
type FileConfig struct {
	Graph struct {
		Tenant       string  `yaml:"tenant" json:"tenant"`
		ClientID     string  `yaml:"clientId" json:"clientId"`
		ClientSecret string  `yaml:"clientSecret" json:"clientSecret"`
		User         string  `yaml:"user" json:"user"`
		Folder       string  `yaml:"folder" json:"folder"`
		MaxEmails    int     `yaml:"maxEmails" json:"maxEmails"`
		BaseURL      string  `yaml:"baseURL" json:"baseURL"`
		TokenURL     string  `yaml:"tokenURL" json:"tokenURL"`
		RPS          float64 `yaml:"rps" json:"rps"`
	} `yaml:"graph" json:"graph"`

	Paths struct {
		Data    string `yaml:"data" json:"data"`
		Raw     string `yaml:"raw" json:"raw"`
		Labeled string `yaml:"labeled" json:"labeled"`
		Dataset string `yaml:"dataset" json:"dataset"`
		Review  string `yaml:"review" json:"review"`
		Lexicon string `yaml:"lexicon" json:"lexicon"`
	} `yaml:"paths" json:"paths"`

	LLM struct {
		BaseURL              string `yaml:"base" json:"base"`
		Model                string `yaml:"model" json:"model"`
		APIKey               string `yaml:"key" json:"key"`
		JSONMode             bool   `yaml:"jsonMode" json:"jsonMode"`
		ReservedOutputTokens int    `yaml:"reservedOutputTokens" json:"reservedOutputTokens"`
	} `yaml:"llm" json:"llm"`

	Label struct {
		Domain    string   `yaml:"domain" json:"domain"`
		Groups    []string `yaml:"groups" json:"groups"`
		MinChars  int      `yaml:"minChars" json:"minChars"`
		Anonymize bool     `yaml:"anonymize" json:"anonymize"`
		Workers   int      `yaml:"workers" json:"workers"`
	} `yaml:"label" json:"label"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
		MaxBytes    int64    `yaml:"maxBytes" json:"maxBytes"`
		MaxCount    int      `yaml:"maxCount" json:"maxCount"`
	} `yaml:"cache" json:"cache"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "24h"-style strings in both YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.parse(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"24h\": %w", err)
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value the file sets onto cfg. Run it on
// defaults, before ApplyEnvOverrides and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}

	str(&cfg.TenantID, fc.Graph.Tenant)
	str(&cfg.ClientID, fc.Graph.ClientID)
	str(&cfg.ClientSecret, fc.Graph.ClientSecret)
	str(&cfg.UserID, fc.Graph.User)
	str(&cfg.MailFolder, fc.Graph.Folder)
	num(&cfg.MaxEmails, fc.Graph.MaxEmails)
	str(&cfg.GraphBaseURL, fc.Graph.BaseURL)
	str(&cfg.GraphTokenURL, fc.Graph.TokenURL)
	if fc.Graph.RPS > 0 {
		cfg.GraphRequestsPerS = fc.Graph.RPS
	}

	str(&cfg.DataDir, fc.Paths.Data)
	str(&cfg.RawPath, fc.Paths.Raw)
	str(&cfg.LabeledPath, fc.Paths.Labeled)
	str(&cfg.DatasetDir, fc.Paths.Dataset)
	str(&cfg.ReviewPath, fc.Paths.Review)
	str(&cfg.LexiconFile, fc.Paths.Lexicon)

	str(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	str(&cfg.LLMModel, fc.LLM.Model)
	str(&cfg.LLMAPIKey, fc.LLM.APIKey)
	cfg.LLMJSONMode = cfg.LLMJSONMode || fc.LLM.JSONMode
	num(&cfg.ReservedOutputTokens, fc.LLM.ReservedOutputTokens)

	str(&cfg.CompanyDomain, fc.Label.Domain)
	if len(fc.Label.Groups) > 0 {
		cfg.MailGroups = append([]string(nil), fc.Label.Groups...)
	}
	num(&cfg.MinChars, fc.Label.MinChars)
	cfg.Anonymize = cfg.Anonymize || fc.Label.Anonymize
	num(&cfg.Workers, fc.Label.Workers)

	str(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	if fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	num(&cfg.CacheMaxCount, fc.Cache.MaxCount)
	cfg.Verbose = cfg.Verbose || fc.Verbose
}

// ValidateConfig checks the settings command needs.
func ValidateConfig(cfg Config, command string) error {
	if cfg.Workers < 0 || cfg.MaxEmails < 0 || cfg.MinChars < 0 || cfg.CacheMaxCount < 0 || cfg.CacheMaxBytes < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	switch command {
	case CmdFetch:
		var missing []string
		for _, kv := range []struct{ key, val string }{
			{"MS_CLIENT_ID", cfg.ClientID},
			{"MS_CLIENT_SECRET", cfg.ClientSecret},
			{"MS_USER_ID", cfg.UserID},
		} {
			if strings.TrimSpace(kv.val) == "" {
				missing = append(missing, kv.key)
			}
		}
		if strings.TrimSpace(cfg.TenantID) == "" && strings.TrimSpace(cfg.GraphTokenURL) == "" {
			missing = append([]string{"MS_TENANT_ID"}, missing...)
		}
		if len(missing) > 0 {
			return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
		}
		if strings.TrimSpace(cfg.MailFolder) == "" {
			return errors.New("config: mail folder is required (or set MS_MAIL_FOLDER)")
		}
	case CmdLabel:
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required (or set LLM_MODEL)")
		}
		if strings.TrimSpace(cfg.CompanyDomain) == "" || len(cfg.MailGroups) == 0 {
			return errors.New("config: company domain and at least one mail group are required")
		}
	}
	return nil
}
