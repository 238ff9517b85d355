package mailer

import (
	"LeadIntake/internal/config"
	"LeadIntake/internal/lib/sl"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const sendGridPath = "/v3/mail/send"

type SendGrid struct {
	apiKey   string
	baseUrl  string
	from     string
	fromName string
	client   *http.Client
	log      *slog.Logger
}

func NewSendGrid(conf *config.Config, logger *slog.Logger) *SendGrid {
	return &SendGrid{
		apiKey:   conf.Mail.ApiKey,
		baseUrl:  strings.TrimSuffix(conf.Mail.BaseUrl, "/"),
		from:     conf.Mail.From,
		fromName: conf.Mail.FromName,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      logger.With(sl.Module("sendgrid")),
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

func (s *SendGrid) payload(msg Message) sgRequest {
	content := make([]sgContent, 0, 2)
	if msg.Text != "" {
		content = append(content, sgContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		content = append(content, sgContent{Type: "text/html", Value: msg.HTML})
	}
	if len(content) == 0 {
		// sendgrid rejects a message without content
		content = append(content, sgContent{Type: "text/plain", Value: " "})
	}

	return sgRequest{
		Personalizations: []sgPersonalization{
			{To: []sgAddress{{Email: msg.To, Name: msg.Name}}},
		},
		From:    sgAddress{Email: s.from, Name: s.fromName},
		Subject: msg.Subject,
		Content: content,
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	bodyBytes, err := json.Marshal(s.payload(msg))
	if err != nil {
		return fmt.Errorf("marshal sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseUrl+sendGridPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create sendgrid request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sendgrid request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid responded with %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	s.log.With(
		slog.String("to", msg.To),
		slog.String("message_id", resp.Header.Get("X-Message-Id")),
	).Debug("sendgrid accepted message")
	return nil
}
