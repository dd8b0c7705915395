package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRecorder struct {
	mu       sync.Mutex
	statuses map[string][]Status
	errors   map[string]string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{statuses: map[string][]Status{}, errors: map[string]string{}}
}

func (r *fakeRecorder) RecordMessage(_ context.Context, id string, _ Message, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = append(r.statuses[id], status)
	return nil
}

func (r *fakeRecorder) UpdateMessage(_ context.Context, id string, status Status, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = append(r.statuses[id], status)
	r.errors[id] = errMsg
	return nil
}

type submitFunc func(ctx context.Context, id string, m Message) error

func (f submitFunc) Submit(ctx context.Context, id string, m Message) error { return f(ctx, id, m) }

func validMessage() Message {
	return Message{Name: " Ada Lovelace ", Email: "ada@example.com", Body: "Hello there"}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		msg    Message
		fields []string
	}{
		{"ok", validMessage(), nil},
		{"blank name", Message{Name: "   ", Email: "a@example.com", Body: "x"}, []string{"name"}},
		{"bad email", Message{Name: "a", Email: "nope", Body: "x"}, []string{"email"}},
		{"everything missing", Message{}, []string{"name", "email", "body"}},
		{"line break in name", Message{Name: "x\r\nBcc: victim@example.com", Email: "a@example.com", Body: "x"}, []string{"name"}},
		{"line break in subject", Message{Name: "a", Email: "a@example.com", Subject: "hi\r\nX-Extra: 1", Body: "x"}, []string{"subject"}},
		{"body keeps line breaks", Message{Name: "a", Email: "a@example.com", Body: "line one\nline two"}, nil},
		{"body too long", Message{Name: "a", Email: "a@example.com", Body: strings.Repeat("x", 5001)}, []string{"body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.msg)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			for _, f := range tt.fields {
				assert.Contains(t, fe, f)
			}
			assert.Len(t, fe, len(tt.fields))
		})
	}
}

func TestService_SubmitSuccess(t *testing.T) {
	rec := newFakeRecorder()
	var got Message
	svc := NewService(submitFunc(func(_ context.Context, _ string, m Message) error {
		got = m
		return nil
	}), rec, nil)

	receipt, err := svc.Submit(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, receipt.Status)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "Ada Lovelace", got.Name, "input is trimmed")
	assert.Equal(t, []Status{StatusSending, StatusSuccess}, rec.statuses[receipt.ID])
}

func TestService_SubmitFailureIsGeneric(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := newFakeRecorder()
	calls := 0
	svc := NewService(submitFunc(func(context.Context, string, Message) error {
		calls++
		return errors.New("535 authentication failed")
	}), rec, zap.New(core))

	receipt, err := svc.Submit(context.Background(), validMessage())
	require.ErrorIs(t, err, ErrDelivery)
	assert.NotContains(t, err.Error(), "535")
	assert.Equal(t, 1, calls, "no retries")
	assert.Equal(t, StatusError, receipt.Status)
	assert.Equal(t, []Status{StatusSending, StatusError}, rec.statuses[receipt.ID])
	assert.Contains(t, rec.errors[receipt.ID], "535")
	assert.Equal(t, 1, logs.FilterMessage("contact delivery failed").Len())
}

func TestService_InvalidSkipsDelivery(t *testing.T) {
	rec := newFakeRecorder()
	svc := NewService(submitFunc(func(context.Context, string, Message) error {
		t.Fatal("submitter must not be called")
		return nil
	}), rec, nil)

	_, err := svc.Submit(context.Background(), Message{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, rec.statuses)
}

func TestService_NilSubmitter(t *testing.T) {
	_, err := NewService(nil, nil, nil).Submit(context.Background(), validMessage())
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestFormEndpoint(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if payload["name"] == "fail" {
			http.Error(w, `{"error":"form disabled"}`, http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := NewFormEndpoint(srv.URL + "/f/abc")
	require.NoError(t, f.Submit(context.Background(), "id-1", Message{Name: "Ada", Email: "ada@example.com", Body: "hi"}))
	assert.Equal(t, "ada@example.com", payload["_replyto"])
	assert.Equal(t, "Portfolio Contact: Ada", payload["_subject"])
	assert.Equal(t, "id-1", payload["id"])

	err := f.Submit(context.Background(), "id-2", Message{Name: "fail"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	assert.ErrorIs(t, (&FormEndpoint{}).Submit(context.Background(), "x", Message{}), ErrNotConfigured)
}

func TestSMTPMailer(t *testing.T) {
	var addr string
	var msg []byte
	m := &SMTPMailer{
		Host: "smtp.example.com", Port: "587", User: "me@example.com", Pass: "secret", To: "owner@example.com",
		send: func(a string, _ smtp.Auth, from string, to []string, body []byte) error {
			addr, msg = a, body
			assert.Equal(t, "me@example.com", from)
			assert.Equal(t, []string{"owner@example.com"}, to)
			return nil
		},
	}
	require.NoError(t, m.Submit(context.Background(), "ref-9", Message{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Body: "body"}))
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Contains(t, string(msg), "Subject: Portfolio Contact: Hi\r\n")
	assert.Contains(t, string(msg), "Reply-To: ada@example.com\r\n")
	assert.Contains(t, string(msg), "Reference: ref-9")

	assert.ErrorIs(t, (&SMTPMailer{}).Submit(context.Background(), "x", Message{}), ErrNotConfigured)
}

func TestSMTPMailer_HeadersStaySingleLine(t *testing.T) {
	var msg []byte
	m := &SMTPMailer{
		Host: "smtp.example.com", Port: "587", User: "me@example.com", Pass: "secret", To: "owner@example.com",
		send: func(_ string, _ smtp.Auth, _ string, _ []string, body []byte) error {
			msg = body
			return nil
		},
	}
	in := Message{Name: "x\r\nBcc: victim@example.com", Email: "a@example.com", Subject: "hi\r\nX-Extra: 1", Body: "body"}
	require.NoError(t, m.Submit(context.Background(), "ref", in))

	header, _, ok := strings.Cut(string(msg), "\r\n\r\n")
	require.True(t, ok)
	for _, line := range strings.Split(header, "\r\n") {
		assert.NotContains(t, line, "\n")
		assert.False(t, strings.HasPrefix(line, "X-Extra") || strings.HasPrefix(line, "Bcc"), line)
	}
	assert.Len(t, strings.Split(header, "\r\n"), 4)
}

func TestService_RejectsHeaderInjection(t *testing.T) {
	sent := false
	svc := NewService(submitFunc(func(context.Context, string, Message) error {
		sent = true
		return nil
	}), nil, nil)
	_, err := svc.Submit(context.Background(), Message{
		Name: "x\r\nBcc: victim@example.com", Email: "a@example.com", Subject: "hi\r\nX-Extra: 1", Body: "x",
	})
	require.ErrorIs(t, err, ErrInvalid)
	assert.False(t, sent)
}

func TestChain(t *testing.T) {
	unconfigured := submitFunc(func(context.Context, string, Message) error { return ErrNotConfigured })
	failing := submitFunc(func(context.Context, string, Message) error { return errors.New("boom") })
	called := false
	ok := submitFunc(func(context.Context, string, Message) error { called = true; return nil })

	assert.NoError(t, Chain{unconfigured, ok}.Submit(context.Background(), "", Message{}))
	assert.True(t, called)

	called = false
	assert.EqualError(t, Chain{failing, ok}.Submit(context.Background(), "", Message{}), "boom")
	assert.False(t, called)

	assert.ErrorIs(t, Chain{unconfigured}.Submit(context.Background(), "", Message{}), ErrNotConfigured)
}
