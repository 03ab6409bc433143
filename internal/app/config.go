package app

import (
	"path/filepath"
	"time"
)

// Config holds runtime configuration for every command.
type Config struct {
	// Mailbox
	TenantID          string
	ClientID          string
	ClientSecret      string
	UserID            string
	MailFolder        string
	MaxEmails         int
	GraphBaseURL      string
	GraphTokenURL     string
	GraphRequestsPerS float64

	// Files. Empty paths are derived from DataDir.
	DataDir     string
	RawPath     string
	LabeledPath string
	DatasetDir  string
	ReviewPath  string
	LexiconFile string

	// LLM
	LLMBaseURL           string
	LLMModel             string
	LLMAPIKey            string
	LLMJSONMode          bool
	ReservedOutputTokens int

	// Labeling
	CompanyDomain string
	MailGroups    []string
	MinChars      int
	Anonymize     bool
	Workers       int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxBytes    int64
	CacheMaxCount    int
	LLMCacheOnly     bool

	Verbose bool
}

const (
	defaultDataDir    = "data/train"
	defaultMailFolder = "TrainMails"
	defaultMaxEmails  = 500
	defaultModel      = "gpt-4o-mini"
	defaultCacheDir   = ".travelmail-cache"
)

// DefaultConfig returns the values used when neither flags, environment
// nor a config file set a field.
func DefaultConfig() Config {
	return Config{
		MailFolder:        defaultMailFolder,
		MaxEmails:         defaultMaxEmails,
		GraphRequestsPerS: 4,
		DataDir:           defaultDataDir,
		LLMModel:          defaultModel,
		CompanyDomain:     "julesverne.com.tr",
		MailGroups:        []string{"booking", "jvnobet", "karadeniz", "denizbank", "tvekip1", "tvekip2", "tvekip3", "tvekip4"},
		MinChars:          40,
		Workers:           4,
		CacheDir:          defaultCacheDir,
	}
}

func (c Config) rawPath() string {
	return orJoin(c.RawPath, c.DataDir, "raw_emails.jsonl")
}

func (c Config) labeledPath() string {
	return orJoin(c.LabeledPath, c.DataDir, "labeled_emails.jsonl")
}

func (c Config) datasetDir() string {
	if c.DatasetDir != "" {
		return c.DatasetDir
	}
	return c.dataDir()
}

func (c Config) reviewPath() string {
	return orJoin(c.ReviewPath, c.DataDir, "review_needed.pdf")
}

func (c Config) dataDir() string {
	if c.DataDir == "" {
		return defaultDataDir
	}
	return c.DataDir
}

func orJoin(explicit, dir, name string) string {
	if explicit != "" {
		return explicit
	}
	if dir == "" {
		dir = defaultDataDir
	}
	return filepath.Join(dir, name)
}
