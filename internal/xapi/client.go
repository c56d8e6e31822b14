// Package xapi is a client for the X API v2 endpoints the bot needs:
// creating posts (plain, reply, quote), retweeting, and reading
// mentions. Requests are signed with OAuth 1.0a user context.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"go.uber.org/zap"
)

// ErrPaidTierRequired indicates the developer account has no posting
// credits; new X developer accounts must prepay to enable writes.
var ErrPaidTierRequired = errors.New("x api posting requires paid credits")

// Credentials holds the OAuth 1.0a user-context credentials.
type Credentials struct {
	APIKey            string
	APISecretKey      string
	AccessToken       string
	AccessTokenSecret string
}

// Client talks to the X API v2.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Mention is a tweet that mentions the authenticated user.
type Mention struct {
	ID             string
	Text           string
	AuthorID       string
	AuthorUsername string
}

// NewClient creates a signed X API client.
func NewClient(creds Credentials, baseURL, userID string) *Client {
	if baseURL == "" {
		baseURL = "https://api.x.com/2"
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecretKey)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: httpClient,
		logger:     zap.NewNop(),
	}
}

// SetLogger attaches a logger; the default is a no-op.
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetHTTPClient replaces the underlying HTTP client. Used by tests to
// bypass OAuth signing.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

type createTweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
	QuoteTweetID string `json:"quote_tweet_id,omitempty"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type retweetRequest struct {
	TweetID string `json:"tweet_id"`
}

type mentionsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		AuthorID string `json:"author_id"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// CreatePost publishes a post and returns its tweet ID.
func (c *Client) CreatePost(ctx context.Context, text string) (string, error) {
	return c.createTweet(ctx, createTweetRequest{Text: text})
}

// CreateReply publishes a reply to the given tweet.
func (c *Client) CreateReply(ctx context.Context, text, inReplyTo string) (string, error) {
	req := createTweetRequest{Text: text}
	req.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: inReplyTo}
	return c.createTweet(ctx, req)
}

// CreateQuote publishes a quote of the given tweet.
func (c *Client) CreateQuote(ctx context.Context, text, quotedID string) (string, error) {
	return c.createTweet(ctx, createTweetRequest{Text: text, QuoteTweetID: quotedID})
}

func (c *Client) createTweet(ctx context.Context, reqBody createTweetRequest) (string, error) {
	body, status, err := c.do(ctx, http.MethodPost, c.baseURL+"/tweets", reqBody)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", c.statusError(status, body)
	}

	var resp createTweetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("no tweet id in response")
	}

	c.logger.Info("post published", zap.String("tweet_id", resp.Data.ID))
	return resp.Data.ID, nil
}

// Retweet retweets the given tweet as the authenticated user.
func (c *Client) Retweet(ctx context.Context, tweetID string) error {
	if c.userID == "" {
		return fmt.Errorf("X_USER_ID not configured")
	}

	url := fmt.Sprintf("%s/users/%s/retweets", c.baseURL, c.userID)
	body, status, err := c.do(ctx, http.MethodPost, url, retweetRequest{TweetID: tweetID})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.statusError(status, body)
	}

	c.logger.Info("retweeted", zap.String("tweet_id", tweetID))
	return nil
}

// Mentions returns recent tweets mentioning the authenticated user.
func (c *Client) Mentions(ctx context.Context) ([]Mention, error) {
	if c.userID == "" {
		return nil, fmt.Errorf("X_USER_ID not configured")
	}

	url := fmt.Sprintf("%s/users/%s/mentions?expansions=author_id&tweet.fields=author_id&user.fields=username", c.baseURL, c.userID)
	body, status, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.statusError(status, body)
	}

	var resp mentionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	usernames := make(map[string]string, len(resp.Includes.Users))
	for _, u := range resp.Includes.Users {
		usernames[u.ID] = u.Username
	}

	mentions := make([]Mention, 0, len(resp.Data))
	for _, d := range resp.Data {
		mentions = append(mentions, Mention{
			ID:             d.ID,
			Text:           d.Text,
			AuthorID:       d.AuthorID,
			AuthorUsername: usernames[d.AuthorID],
		})
	}
	return mentions, nil
}

// PostURL returns the public URL for a tweet ID.
func PostURL(tweetID string) string {
	return "https://x.com/i/web/status/" + tweetID
}

func (c *Client) do(ctx context.Context, method, url string, reqBody interface{}) ([]byte, int, error) {
	var reader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// statusError maps an error status to a sentinel or a wrapped error.
// 402 and "credits" bodies mean the account cannot post without
// prepaying, which callers surface with a manual-posting fallback.
func (c *Client) statusError(status int, body []byte) error {
	if status == http.StatusPaymentRequired || strings.Contains(strings.ToLower(string(body)), "credits") {
		return fmt.Errorf("%w: status %d", ErrPaidTierRequired, status)
	}
	return fmt.Errorf("API request failed with status %d: %s", status, string(body))
}
