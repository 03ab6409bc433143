package app

import (
	"strings"
	"testing"
	"time"
)

func TestApplyEnvOverrides(t *testing.T) {
	unsetEnv(t, "LLM_MODEL", "LLM_API_KEY")
	t.Setenv("MS_TENANT_ID", "tenant")
	t.Setenv("MS_MAIL_FOLDER", "Talepler")
	t.Setenv("TRAIN_MAX_EMAILS", "120")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAIL_GROUPS", "booking, ,tvekip9")
	t.Setenv("CACHE_MAX_AGE", "36h")
	t.Setenv("ANONYMIZE", "yes")
	t.Setenv("WORKERS", "not-a-number")

	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)
	if cfg.TenantID != "tenant" || cfg.MailFolder != "Talepler" || cfg.MaxEmails != 120 {
		t.Fatalf("mailbox settings: %+v", cfg)
	}
	if cfg.LLMModel != "gpt-4o" || cfg.LLMAPIKey != "sk-test" {
		t.Fatalf("OPENAI_* fallbacks not applied: model=%q", cfg.LLMModel)
	}
	if strings.Join(cfg.MailGroups, ",") != "booking,tvekip9" {
		t.Fatalf("groups=%v", cfg.MailGroups)
	}
	if cfg.CacheMaxAge != 36*time.Hour || !cfg.Anonymize || cfg.Workers != 4 {
		t.Fatalf("cache/anonymize/workers: %+v", cfg)
	}

	t.Setenv("LLM_MODEL", "local-model")
	t.Setenv("ANONYMIZE", "off")
	ApplyEnvOverrides(&cfg)
	if cfg.LLMModel != "local-model" || cfg.Anonymize {
		t.Fatalf("LLM_MODEL must win over OPENAI_MODEL and ANONYMIZE=off must clear: %+v", cfg)
	}
}

func TestLoadConfigFile_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yml := writeFile(t, dir, "travelmail.yaml", `
graph:
  tenant: t1
  folder: Talepler
  maxEmails: 50
paths:
  data: /srv/train
llm:
  model: qwen2.5
  jsonMode: true
label:
  groups: [booking]
  workers: 8
cache:
  maxAge: 48h
  maxCount: 100
`)
	fc, err := LoadConfigFile(yml)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.TenantID != "t1" || cfg.MailFolder != "Talepler" || cfg.MaxEmails != 50 {
		t.Fatalf("graph: %+v", cfg)
	}
	if cfg.rawPath() != "/srv/train/raw_emails.jsonl" || cfg.labeledPath() != "/srv/train/labeled_emails.jsonl" {
		t.Fatalf("paths: %s %s", cfg.rawPath(), cfg.labeledPath())
	}
	if cfg.LLMModel != "qwen2.5" || !cfg.LLMJSONMode || cfg.Workers != 8 || len(cfg.MailGroups) != 1 {
		t.Fatalf("llm/label: %+v", cfg)
	}
	if cfg.CacheMaxAge != 48*time.Hour || cfg.CacheMaxCount != 100 {
		t.Fatalf("cache: %+v", cfg)
	}
	if cfg.CompanyDomain != "julesverne.com.tr" || cfg.MinChars != 40 {
		t.Fatal("unset file fields must keep defaults")
	}

	js := writeFile(t, dir, "travelmail.json", `{"llm":{"model":"m"},"cache":{"maxAge":"2h"}}`)
	fc, err = LoadConfigFile(js)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if fc.LLM.Model != "m" || time.Duration(fc.Cache.MaxAge) != 2*time.Hour {
		t.Fatalf("json: %+v", fc)
	}

	bad := writeFile(t, dir, "bad.yaml", "cache:\n  maxAge: soon\n")
	if _, err := LoadConfigFile(bad); err == nil {
		t.Fatal("bad duration must fail")
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	err := ValidateConfig(cfg, CmdFetch)
	if err == nil || !strings.Contains(err.Error(), "MS_TENANT_ID, MS_CLIENT_ID, MS_CLIENT_SECRET, MS_USER_ID") {
		t.Fatalf("fetch: %v", err)
	}
	cfg.TenantID, cfg.ClientID, cfg.ClientSecret, cfg.UserID = "t", "c", "s", "u"
	if err := ValidateConfig(cfg, CmdFetch); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := ValidateConfig(cfg, CmdLabel); err != nil {
		t.Fatalf("label: %v", err)
	}
	cfg.LLMModel = " "
	if err := ValidateConfig(cfg, CmdLabel); err == nil {
		t.Fatal("label without model must fail")
	}
	if err := ValidateConfig(cfg, CmdSegment); err != nil {
		t.Fatalf("segment needs no model: %v", err)
	}
	cfg.Workers = -1
	if err := ValidateConfig(cfg, CmdSegment); err == nil {
		t.Fatal("negative workers must fail")
	}
}
