// Package contact delivers contact form submissions.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalid wraps validation failures of a Message.
	ErrInvalid = errors.New("invalid message")
	// ErrNotConfigured is returned by a Submitter lacking credentials.
	ErrNotConfigured = errors.New("contact delivery not configured")
	// ErrDelivery is the generic failure shown to visitors.
	ErrDelivery = errors.New("message could not be sent")
)

// Status is the optimistic UI state of the form.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Message is one form submission.
type Message struct {
	Name    string `form:"fullName" json:"name" validate:"required,max=200,singleline"`
	Email   string `form:"email" json:"email" validate:"required,email"`
	Subject string `form:"subject" json:"subject,omitempty" validate:"max=300,singleline"`
	Body    string `form:"message" json:"message" validate:"required,max=5000"`
}

func (m Message) normalized() Message {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Body = strings.TrimSpace(m.Body)
	return m
}

// FieldErrors maps form field names to a human message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+": "+v)
	}
	return fmt.Sprintf("%v: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (f FieldErrors) Unwrap() error { return ErrInvalid }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Name and subject end up in mail headers.
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

// Validate checks m after trimming whitespace.
func Validate(m Message) error {
	err := validate.Struct(m.normalized())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "is too long"
	case "singleline":
		return "must be a single line"
	}
	return "is invalid"
}

// Submitter hands a message to a delivery backend.
type Submitter interface {
	Submit(ctx context.Context, id string, m Message) error
}

// Recorder persists submissions and their status. The store satisfies it.
type Recorder interface {
	RecordMessage(ctx context.Context, id string, m Message, status Status) error
	UpdateMessage(ctx context.Context, id string, status Status, errMsg string) error
}

// Receipt identifies an accepted submission.
type Receipt struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Service validates, records and delivers submissions.
type Service struct {
	submitter Submitter
	recorder  Recorder
	log       *zap.Logger
	newID     func() string
}

// NewService returns a Service. recorder and log may be nil.
func NewService(submitter Submitter, recorder Recorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		submitter: submitter,
		recorder:  recorder,
		log:       log,
		newID:     func() string { return uuid.NewString() },
	}
}

// Submit delivers m once. Validation failures are returned as FieldErrors;
// delivery failures are logged and reported as ErrDelivery.
func (s *Service) Submit(ctx context.Context, m Message) (Receipt, error) {
	if err := Validate(m); err != nil {
		return Receipt{Status: StatusError}, err
	}
	m = m.normalized()
	id := s.newID()
	log := s.log.With(zap.String("message_id", id))

	if s.recorder != nil {
		if err := s.recorder.RecordMessage(ctx, id, m, StatusSending); err != nil {
			log.Warn("record contact message", zap.Error(err))
		}
	}

	status, errMsg := StatusSuccess, ""
	err := ErrNotConfigured
	if s.submitter != nil {
		err = s.submitter.Submit(ctx, id, m)
	}
	if err != nil {
		status, errMsg = StatusError, err.Error()
		log.Error("contact delivery failed", zap.Error(err))
	} else {
		log.Info("contact message delivered")
	}

	if s.recorder != nil {
		if uerr := s.recorder.UpdateMessage(ctx, id, status, errMsg); uerr != nil {
			log.Warn("update contact message", zap.Error(uerr))
		}
	}
	if err != nil {
		return Receipt{ID: id, Status: status}, ErrDelivery
	}
	return Receipt{ID: id, Status: status}, nil
}
