package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

// FormEndpoint posts submissions to a hosted form processor.
type FormEndpoint struct {
	URL    string
	Client *http.Client
}

func NewFormEndpoint(url string) *FormEndpoint {
	return &FormEndpoint{URL: url, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (f *FormEndpoint) Submit(ctx context.Context, id string, m Message) error {
	if f.URL == "" {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(map[string]string{
		"name":     m.Name,
		"email":    m.Email,
		"_replyto": m.Email,
		"_subject": subjectFor(m),
		"message":  m.Body,
		"id":       id,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("form endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// SMTPMailer mails submissions to the site owner.
type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	To   string

	// send defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPMailer) Submit(ctx context.Context, id string, m Message) error {
	if s.User == "" || s.Pass == "" || s.To == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Reference: %s
`, m.Name, m.Email, m.Body, id)

	msg := []byte("To: " + s.To + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", subjectFor(m)) + "\r\n" +
		"From: " + s.User + "\r\n" +
		"Reply-To: " + headerValue(m.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	if err := send(s.Host+":"+s.Port, auth, s.User, []string{s.To}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func subjectFor(m Message) string {
	subject := m.Subject
	if subject == "" {
		subject = m.Name
	}
	return "Portfolio Contact: " + headerValue(subject)
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// headerValue folds line breaks so a value cannot start a new header.
func headerValue(s string) string {
	return headerBreaks.Replace(s)
}

// Chain delivers through the first configured submitter. Unconfigured
// submitters are skipped; a configured one that fails ends the attempt.
type Chain []Submitter

func (c Chain) Submit(ctx context.Context, id string, m Message) error {
	for _, s := range c {
		err := s.Submit(ctx, id, m)
		if errors.Is(err, ErrNotConfigured) {
			continue
		}
		return err
	}
	return ErrNotConfigured
}
