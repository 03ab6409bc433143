package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields whose environment variables are
// set. It runs after the config file and before explicit flags.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setInt := func(dst *int, key string) {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
			*dst = n
		}
	}
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}

	setString(&cfg.TenantID, "MS_TENANT_ID")
	setString(&cfg.ClientID, "MS_CLIENT_ID")
	setString(&cfg.ClientSecret, "MS_CLIENT_SECRET")
	setString(&cfg.UserID, "MS_USER_ID")
	setString(&cfg.MailFolder, "MS_MAIL_FOLDER")
	setInt(&cfg.MaxEmails, "TRAIN_MAX_EMAILS")

	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.LexiconFile, "LEXICON_FILE")

	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL", "OPENAI_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setBool(&cfg.LLMJSONMode, "LLM_JSON_MODE")

	setString(&cfg.CompanyDomain, "COMPANY_DOMAIN")
	if v := strings.TrimSpace(os.Getenv("MAIL_GROUPS")); v != "" {
		cfg.MailGroups = splitList(v)
	}
	setBool(&cfg.Anonymize, "ANONYMIZE")
	setInt(&cfg.Workers, "WORKERS")

	setString(&cfg.CacheDir, "CACHE_DIR")
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv("CACHE_MAX_AGE"))); err == nil {
		cfg.CacheMaxAge = d
	}
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.LLMCacheOnly, "LLM_CACHE_ONLY")
	setBool(&cfg.Verbose, "VERBOSE")
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
