package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/guildforge/guildforge/internal/monitoring"
	"github.com/guildforge/guildforge/pkg/logger"
)

const (
	// DefaultBaseURL is the Discord REST API root.
	DefaultBaseURL = "https://discord.com/api/v10"

	userAgent = "GuildForge/1.0 (https://github.com/guildforge/guildforge)"
)

// Config tunes the client's pacing and retry behavior. The defaults keep a
// run under the remote request budget without inspecting rate-limit headers
// proactively.
type Config struct {
	Token       string
	BaseURL     string
	MinInterval time.Duration // minimum spacing between any two calls
	BatchSize   int           // after every BatchSize calls, pause longer
	BatchPause  time.Duration
	MaxAttempts int // retry ceiling per call, including the first attempt
	Timeout     time.Duration
}

// DefaultConfig returns the production pacing profile for a bot token.
func DefaultConfig(token string) Config {
	return Config{
		Token:       token,
		BaseURL:     DefaultBaseURL,
		MinInterval: 250 * time.Millisecond,
		BatchSize:   5,
		BatchPause:  1500 * time.Millisecond,
		MaxAttempts: 3,
		Timeout:     15 * time.Second,
	}
}

// Client is the single chokepoint for outbound mutating calls. Every request
// goes through its pacing gate and retry loop.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu       sync.Mutex
	lastCall time.Time
	calls    int
}

// NewClient creates a rate-limited Discord API client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// pace blocks until the next call is allowed to go out. Reserves the slot
// under the lock, then sleeps outside it so concurrent runs queue up fairly.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.cfg.MinInterval - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.calls++
	if c.cfg.BatchSize > 0 && c.calls%c.cfg.BatchSize == 0 {
		wait += c.cfg.BatchPause
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		monitoring.DiscordPacingWaits.Observe(wait.Seconds())
	}
	return sleepCtx(ctx, wait)
}

// do executes one API call with pacing and the full retry policy. A nil out
// skips response decoding.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	backoff := time.Second
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.pace(ctx); err != nil {
			return err
		}

		apiErr, retryAfter, err := c.send(ctx, method, path, payload, out)
		if err != nil {
			// Transport-level failure, treat like a server-side error.
			lastErr = err
			monitoring.DiscordRetriesTotal.WithLabelValues("transport").Inc()
			if attempt == c.cfg.MaxAttempts {
				break
			}
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}
		if apiErr == nil {
			monitoring.DiscordCallsTotal.WithLabelValues(method, "ok").Inc()
			return nil
		}

		lastErr = apiErr
		switch classifyStatus(apiErr.StatusCode, apiErr.Code) {
		case classFatal:
			monitoring.DiscordCallsTotal.WithLabelValues(method, "fatal").Inc()
			return &FatalError{Err: apiErr}

		case classRateLimited:
			monitoring.DiscordRetriesTotal.WithLabelValues("rate_limited").Inc()
			logger.Warn("Rate limited by Discord, backing off", map[string]interface{}{
				"path":        path,
				"retry_after": retryAfter.String(),
				"attempt":     attempt,
			})
			if attempt == c.cfg.MaxAttempts {
				break
			}
			if err := sleepCtx(ctx, retryAfter); err != nil {
				return err
			}
			continue

		case classServerSide:
			monitoring.DiscordRetriesTotal.WithLabelValues("server_error").Inc()
			if attempt == c.cfg.MaxAttempts {
				break
			}
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue

		default:
			monitoring.DiscordCallsTotal.WithLabelValues(method, "error").Inc()
			return apiErr
		}
	}

	monitoring.DiscordCallsTotal.WithLabelValues(method, "exhausted").Inc()
	return fmt.Errorf("retries exhausted after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

// send performs a single HTTP exchange. Returns a non-nil *APIError for
// non-2xx responses; the transport error return is for failures below HTTP.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, out interface{}) (*APIError, time.Duration, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.Token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("Discord API request", map[string]interface{}{
		"method": method,
		"path":   path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(raw) > 0 {
			if err := json.Unmarshal(raw, out); err != nil {
				return nil, 0, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil, 0, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var errBody struct {
		Message    string  `json:"message"`
		Code       int     `json:"code"`
		RetryAfter float64 `json:"retry_after"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &errBody) == nil {
		if errBody.Message != "" {
			apiErr.Message = errBody.Message
		}
		apiErr.Code = errBody.Code
	}

	retryAfter := time.Duration(errBody.RetryAfter * float64(time.Second))
	if retryAfter == 0 {
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil {
			retryAfter = time.Duration(secs * float64(time.Second))
		}
	}

	return apiErr, retryAfter, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// === Identity & preflight ===

// GetCurrentUser returns the identity behind the acting credential.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/@me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetGuild verifies the target guild is reachable with this credential.
func (c *Client) GetGuild(ctx context.Context, guildID string) (*Guild, error) {
	var guild Guild
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID, nil, &guild); err != nil {
		return nil, err
	}
	return &guild, nil
}

// === Roles ===

// CreateRole creates a guild role and returns its assigned identifier.
func (c *Client) CreateRole(ctx context.Context, guildID string, req CreateRoleRequest) (*Role, error) {
	var role Role
	if err := c.do(ctx, http.MethodPost, "/guilds/"+guildID+"/roles", req, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// GetRoles lists all roles on the guild.
func (c *Client) GetRoles(ctx context.Context, guildID string) ([]Role, error) {
	var roles []Role
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// DeleteRole removes a role from the guild.
func (c *Client) DeleteRole(ctx context.Context, guildID, roleID string) error {
	return c.do(ctx, http.MethodDelete, "/guilds/"+guildID+"/roles/"+roleID, nil, nil)
}

// === Channels ===

// CreateChannel creates a category or channel on the guild.
func (c *Client) CreateChannel(ctx context.Context, guildID string, req CreateChannelRequest) (*Channel, error) {
	var ch Channel
	if err := c.do(ctx, http.MethodPost, "/guilds/"+guildID+"/channels", req, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChannels lists all channels on the guild, categories included.
func (c *Client) GetChannels(ctx context.Context, guildID string) ([]Channel, error) {
	var chs []Channel
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/channels", nil, &chs); err != nil {
		return nil, err
	}
	return chs, nil
}

// DeleteChannel deletes a channel or category.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+channelID, nil, nil)
}

// === Messages ===

// CreateMessage posts a message into a channel.
func (c *Client) CreateMessage(ctx context.Context, channelID string, req CreateMessageRequest) (*Message, error) {
	var msg Message
	if err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// === Guild settings ===

// ModifyGuild patches guild-level settings.
func (c *Client) ModifyGuild(ctx context.Context, guildID string, req ModifyGuildRequest) error {
	return c.do(ctx, http.MethodPatch, "/guilds/"+guildID, req, nil)
}

// === Auto-moderation ===

// CreateAutoModRule creates an auto-moderation rule.
func (c *Client) CreateAutoModRule(ctx context.Context, guildID string, req CreateAutoModRuleRequest) (*AutoModRule, error) {
	var rule AutoModRule
	if err := c.do(ctx, http.MethodPost, "/guilds/"+guildID+"/auto-moderation/rules", req, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListAutoModRules lists the guild's auto-moderation rules.
func (c *Client) ListAutoModRules(ctx context.Context, guildID string) ([]AutoModRule, error) {
	var rules []AutoModRule
	if err := c.do(ctx, http.MethodGet, "/guilds/"+guildID+"/auto-moderation/rules", nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// DeleteAutoModRule deletes one auto-moderation rule.
func (c *Client) DeleteAutoModRule(ctx context.Context, guildID, ruleID string) error {
	return c.do(ctx, http.MethodDelete, "/guilds/"+guildID+"/auto-moderation/rules/"+ruleID, nil, nil)
}

// === Onboarding ===

// ModifyOnboarding replaces the guild's onboarding flow.
func (c *Client) ModifyOnboarding(ctx context.Context, guildID string, req ModifyOnboardingRequest) error {
	return c.do(ctx, http.MethodPut, "/guilds/"+guildID+"/onboarding", req, nil)
}
