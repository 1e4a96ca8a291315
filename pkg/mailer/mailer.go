// Package mailer delivers invitation emails through the transactional mail
// service's REST API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	URL        string        `split_words:"true" required:"true"`
	Token      string        `split_words:"true" required:"true"`
	FromEmail  string        `split_words:"true" required:"true"`
	InviteBase string        `split_words:"true" default:"https://app.coachdesk.io/invite"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	token      string
	fromEmail  string
	inviteBase string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("mailer url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("mailer from email is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(cfg.Token),
		fromEmail:  strings.TrimSpace(cfg.FromEmail),
		inviteBase: strings.TrimRight(strings.TrimSpace(cfg.InviteBase), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type invitePayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendInvite emails a bundle invitation link to one recipient. The token is
// embedded in the accept URL; expiry is stated in the body so the recipient
// knows how long the link is valid.
func (c *Client) SendInvite(
	ctx context.Context,
	email, name, token, senderName string,
	expiresAt time.Time,
	personalMessage string,
) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("recipient email is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("invitation token is empty")
	}

	greeting := "Hi"
	if strings.TrimSpace(name) != "" {
		greeting = "Hi " + strings.TrimSpace(name)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s,\n\n%s has invited you to a training bundle.\n", greeting, senderName)
	if strings.TrimSpace(personalMessage) != "" {
		fmt.Fprintf(&body, "\n%s\n", strings.TrimSpace(personalMessage))
	}
	fmt.Fprintf(&body, "\nAccept the invitation here: %s/%s\n", c.inviteBase, url.PathEscape(token))
	fmt.Fprintf(&body, "The link expires on %s.\n", expiresAt.UTC().Format("2 Jan 2006"))

	payload, err := json.Marshal(invitePayload{
		From:    c.fromEmail,
		To:      email,
		Subject: fmt.Sprintf("%s invited you to train together", senderName),
		Text:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal invite payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build invite request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		return fmt.Errorf("mail service rejected invite: %s", msg)
	}
	return nil
}
