package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/travelmail/internal/fetch"
)

const (
	DefaultGraphBase = "https://graph.microsoft.com/v1.0"
	graphScope       = "https://graph.microsoft.com/.default"
	pageSize         = 50
	folderPageSize   = 100
	messageFields    = "id,subject,bodyPreview,body,from,toRecipients,ccRecipients,receivedDateTime"
)

// ErrFolderNotFound is returned when no folder matches the display name.
var ErrFolderNotFound = errors.New("mail folder not found")

var wellKnownFolders = map[string]string{
	"inbox":        "Inbox",
	"sentitems":    "SentItems",
	"drafts":       "Drafts",
	"deleteditems": "DeletedItems",
}

// GraphConfig holds app-only credentials for one mailbox.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	UserID       string
	// BaseURL and TokenURL default to the public Microsoft endpoints.
	BaseURL  string
	TokenURL string
	// RequestsPerSecond paces Graph calls. Zero means 4.
	RequestsPerSecond float64
	MaxAttempts       int
	Timeout           time.Duration
	// HTTPClient is the transport used for both token and Graph requests.
	HTTPClient *http.Client
}

// Validate reports the first missing credential.
func (c GraphConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.TenantID) == "" && strings.TrimSpace(c.TokenURL) == "":
		return errors.New("MS_TENANT_ID is required")
	case strings.TrimSpace(c.ClientID) == "":
		return errors.New("MS_CLIENT_ID is required")
	case strings.TrimSpace(c.ClientSecret) == "":
		return errors.New("MS_CLIENT_SECRET is required")
	case strings.TrimSpace(c.UserID) == "":
		return errors.New("MS_USER_ID is required")
	}
	return nil
}

// GraphClient reads messages from one user's mailbox.
type GraphClient struct {
	base   string
	userID string
	http   *fetch.Client
}

// NewGraphClient builds a client that obtains tokens with the OAuth2 client
// credentials grant. ctx bounds token refreshes for the client's lifetime.
func NewGraphClient(ctx context.Context, cfg GraphConfig) (*GraphClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://login.microsoftonline.com/" + url.PathEscape(cfg.TenantID) + "/oauth2/v2.0/token"
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultGraphBase
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{graphScope},
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 4
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GraphClient{
		base:   base,
		userID: cfg.UserID,
		http: &fetch.Client{
			HTTPClient:        cc.Client(ctx),
			UserAgent:         "travelmail",
			MaxAttempts:       attempts,
			PerRequestTimeout: timeout,
			Limiter:           rate.NewLimiter(rate.Limit(rps), 1),
			MaxConcurrent:     2,
		},
	}, nil
}

func (g *GraphClient) userURL(parts ...string) string {
	return g.base + "/users/" + url.PathEscape(g.userID) + "/" + strings.Join(parts, "/")
}

type folder struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// eachPage follows @odata.nextLink from first, calling fn per page until fn
// returns false.
func eachPage[T any](ctx context.Context, c *fetch.Client, first string, q url.Values, fn func([]T) bool) error {
	next := first
	for next != "" {
		b, err := c.GetJSON(ctx, next, q)
		if err != nil {
			return err
		}
		var p page[T]
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("decode page: %w", err)
		}
		if !fn(p.Value) {
			return nil
		}
		next, q = p.NextLink, nil
	}
	return nil
}

// ResolveFolderID maps a display name to a folder id. Well-known names map
// directly; otherwise Inbox children are searched first, then every top
// level folder. Matching is case-insensitive.
func (g *GraphClient) ResolveFolderID(ctx context.Context, name string) (string, error) {
	dn := strings.TrimSpace(name)
	if dn == "" {
		return "", errors.New("folder display name is empty")
	}
	lower := strings.ToLower(dn)
	if id, ok := wellKnownFolders[lower]; ok {
		return id, nil
	}
	q := url.Values{"$top": {strconv.Itoa(folderPageSize)}}
	for _, scope := range []struct {
		name string
		url  string
	}{
		{"inbox", g.userURL("mailFolders", "inbox", "childFolders")},
		{"all", g.userURL("mailFolders")},
	} {
		var found string
		err := eachPage(ctx, g.http, scope.url, q, func(fs []folder) bool {
			for _, f := range fs {
				if strings.ToLower(strings.TrimSpace(f.DisplayName)) == lower {
					found = f.ID
					return false
				}
			}
			return true
		})
		if err != nil {
			return "", fmt.Errorf("list folders: %w", err)
		}
		if found != "" {
			log.Info().Str("folder", dn).Str("scope", scope.name).Str("id", found).Msg("resolved mail folder")
			return found, nil
		}
	}
	return "", fmt.Errorf("%w: %q in mailbox %s", ErrFolderNotFound, dn, g.userID)
}

// FetchMessages returns up to max messages from folderID, newest first.
func (g *GraphClient) FetchMessages(ctx context.Context, folderID string, max int) ([]Message, error) {
	if max <= 0 {
		return nil, nil
	}
	q := url.Values{
		"$top":     {strconv.Itoa(pageSize)},
		"$orderby": {"receivedDateTime desc"},
		"$select":  {messageFields},
	}
	var out []Message
	err := eachPage(ctx, g.http, g.userURL("mailFolders", url.PathEscape(folderID), "messages"), q, func(ms []Message) bool {
		out = append(out, ms...)
		log.Debug().Int("page", len(ms)).Int("total", len(out)).Msg("fetched message page")
		return len(out) < max
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

// FetchFolder resolves name and fetches up to max messages from it.
func (g *GraphClient) FetchFolder(ctx context.Context, name string, max int) ([]Message, error) {
	id, err := g.ResolveFolderID(ctx, name)
	if err != nil {
		return nil, err
	}
	return g.FetchMessages(ctx, id, max)
}
