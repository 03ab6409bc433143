package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/travelmail/internal/app"
	"github.com/hyperifyio/travelmail/internal/dataset"
)

const usage = `usage: travelmail [flags] <command> [command flags]

commands:
  fetch     download the training folder to raw_emails.jsonl
  label     extract request labels into labeled_emails.jsonl
  dataset   write fine-tuning files (-kind io,chat,slots)
  segment   print the best segment of one body (file or stdin)
  review    render records that need review into a PDF

flags:
`

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoSegment), errors.Is(err, app.ErrNoInput):
		return 2
	default:
		return 1
	}
}

// settings binds the global flags and records how each one is applied so
// that only flags given on the command line override env and file values.
type settings struct {
	fs    *flag.FlagSet
	apply map[string]func(*app.Config)
}

func newSettings(stderr io.Writer) *settings {
	fs := flag.NewFlagSet("travelmail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	return &settings{fs: fs, apply: map[string]func(*app.Config){}}
}

func (s *settings) str(name, usage string, field func(*app.Config) *string) {
	v := s.fs.String(name, "", usage)
	s.apply[name] = func(c *app.Config) { *field(c) = *v }
}

func (s *settings) integer(name, usage string, field func(*app.Config) *int) {
	v := s.fs.Int(name, 0, usage)
	s.apply[name] = func(c *app.Config) { *field(c) = *v }
}

func (s *settings) boolean(name, usage string, field func(*app.Config) *bool) {
	v := s.fs.Bool(name, false, usage)
	s.apply[name] = func(c *app.Config) { *field(c) = *v }
}

func (s *settings) duration(name, usage string, field func(*app.Config) *time.Duration) {
	v := s.fs.Duration(name, 0, usage)
	s.apply[name] = func(c *app.Config) { *field(c) = *v }
}

func (s *settings) list(name, usage string, field func(*app.Config) *[]string) {
	v := s.fs.String(name, "", usage)
	s.apply[name] = func(c *app.Config) {
		var out []string
		for _, p := range strings.Split(*v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*field(c) = out
	}
}

// overlay applies the flags that were set explicitly.
func (s *settings) overlay(cfg *app.Config) {
	s.fs.Visit(func(f *flag.Flag) {
		if fn, ok := s.apply[f.Name]; ok {
			fn(cfg)
		}
	})
}

func bindConfigFlags(s *settings) {
	s.str("mail.folder", "Mail folder display name (default TrainMails)", func(c *app.Config) *string { return &c.MailFolder })
	s.integer("mail.max", "Maximum emails to fetch (default 500)", func(c *app.Config) *int { return &c.MaxEmails })
	s.str("graph.base", "Microsoft Graph base URL", func(c *app.Config) *string { return &c.GraphBaseURL })
	s.str("graph.token", "OAuth token URL override", func(c *app.Config) *string { return &c.GraphTokenURL })
	s.str("data.dir", "Directory for the JSONL, dataset and review files (default data/train)", func(c *app.Config) *string { return &c.DataDir })
	s.str("lexicon", "YAML file with markers, travel and legal keyword lists", func(c *app.Config) *string { return &c.LexiconFile })
	s.str("llm.base", "OpenAI-compatible base URL", func(c *app.Config) *string { return &c.LLMBaseURL })
	s.str("llm.model", "Model name (default gpt-4o-mini)", func(c *app.Config) *string { return &c.LLMModel })
	s.str("llm.key", "API key for the OpenAI-compatible server", func(c *app.Config) *string { return &c.LLMAPIKey })
	s.boolean("llm.jsonMode", "Request a JSON object response format", func(c *app.Config) *bool { return &c.LLMJSONMode })
	s.boolean("llm.cacheOnly", "Serve labels from the cache only and never call the model", func(c *app.Config) *bool { return &c.LLMCacheOnly })
	s.integer("llm.reservedOutput", "Tokens reserved for the model answer (default 1024)", func(c *app.Config) *int { return &c.ReservedOutputTokens })
	s.str("label.domain", "Company mail domain", func(c *app.Config) *string { return &c.CompanyDomain })
	s.list("label.groups", "Comma-separated group mailbox names", func(c *app.Config) *[]string { return &c.MailGroups })
	s.integer("label.minChars", "Minimum segment length in characters (default 40)", func(c *app.Config) *int { return &c.MinChars })
	s.integer("label.workers", "Concurrent labeling workers (default 4)", func(c *app.Config) *int { return &c.Workers })
	s.boolean("anonymize", "Mask emails, phone numbers and booking codes before labeling", func(c *app.Config) *bool { return &c.Anonymize })
	s.str("cache.dir", "Cache directory path (empty disables)", func(c *app.Config) *string { return &c.CacheDir })
	s.duration("cache.maxAge", "Purge cache entries older than this; 0 disables", func(c *app.Config) *time.Duration { return &c.CacheMaxAge })
	s.boolean("cache.clear", "Clear the cache directory before labeling", func(c *app.Config) *bool { return &c.CacheClear })
	s.boolean("cache.strictPerms", "Restrict cache permissions (0700 dirs, 0600 files)", func(c *app.Config) *bool { return &c.CacheStrictPerms })
	s.integer("cache.maxCount", "Maximum cached answers; 0 disables", func(c *app.Config) *int { return &c.CacheMaxCount })
	s.boolean("v", "Verbose logging", func(c *app.Config) *bool { return &c.Verbose })
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then the environment, then explicit flags.
func loadConfig(s *settings, configPath string) (app.Config, error) {
	cfg := app.DefaultConfig()
	if p := strings.TrimSpace(configPath); p != "" {
		fc, err := app.LoadConfigFile(p)
		if err != nil {
			return cfg, fmt.Errorf("config file %s: %w", p, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	s.overlay(&cfg)
	return cfg, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	s := newSettings(stderr)
	configPath := s.fs.String("config", "", "YAML or JSON config file")
	envFiles := s.fs.String("env", ".env", "Comma-separated dotenv files loaded before reading the environment")
	showVersion := s.fs.Bool("version", false, "Print version and exit")
	bindConfigFlags(s)
	if err := s.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if *showVersion {
		fmt.Fprintln(stdout, app.VersionString())
		return 0
	}
	rest := s.fs.Args()
	if len(rest) == 0 {
		s.fs.Usage()
		return 1
	}
	command, cmdArgs := rest[0], rest[1:]

	if err := app.LoadEnvFiles(strings.Split(*envFiles, ",")...); err != nil {
		log.Error().Err(err).Msg("load env files")
		return 1
	}
	cfg, err := loadConfig(s, *configPath)
	if err != nil {
		log.Error().Err(err).Msg("configuration")
		return 1
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if err := app.ValidateConfig(cfg, command); err != nil {
		log.Error().Err(err).Str("command", command).Msg("invalid configuration")
		return 1
	}

	err = dispatch(ctx, cfg, command, cmdArgs, stdin, stdout, stderr)
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("command failed")
	}
	return exitCode(err)
}

func dispatch(ctx context.Context, cfg app.Config, command string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		kinds     = fs.String("kind", "io,chat,slots", "Dataset kinds to write (dataset)")
		html      = fs.Bool("html", false, "Treat the input as HTML (segment)")
		anonymize = fs.Bool("anonymize", false, "Mask personal data in the output (segment)")
		explain   = fs.Bool("explain", false, "Print every scored segment as JSON (segment)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	switch command {
	case app.CmdFetch:
		_, err := a.Fetch(ctx)
		return err
	case app.CmdLabel:
		_, err := a.Label(ctx)
		return err
	case app.CmdDataset:
		var ks []dataset.Kind
		for _, name := range strings.Split(*kinds, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			k, err := dataset.ParseKind(name)
			if err != nil {
				return err
			}
			ks = append(ks, k)
		}
		_, err := a.Dataset(ks)
		return err
	case app.CmdSegment:
		in := stdin
		if fs.NArg() > 0 && fs.Arg(0) != "-" {
			f, err := os.Open(fs.Arg(0))
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return a.Segment(in, stdout, app.SegmentOptions{HTML: *html, Anonymize: *anonymize || cfg.Anonymize, Explain: *explain})
	case app.CmdReview:
		_, err := a.Review()
		return err
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
