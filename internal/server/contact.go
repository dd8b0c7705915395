package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/store"
)

// MessageRecorder adapts the store to contact.Recorder.
type MessageRecorder struct {
	Store *store.Store
}

func (r MessageRecorder) RecordMessage(ctx context.Context, id string, m contact.Message, status contact.Status) error {
	return r.Store.InsertMessage(ctx, store.MessageRecord{
		ID:      id,
		Name:    m.Name,
		Email:   m.Email,
		Subject: m.Subject,
		Body:    m.Body,
		Status:  string(status),
	})
}

func (r MessageRecorder) UpdateMessage(ctx context.Context, id string, status contact.Status, errMsg string) error {
	return r.Store.SetMessageStatus(ctx, id, string(status), errMsg)
}

func (s *Server) handleContactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"title":  "Contact Me",
		"status": contact.StatusIdle,
	})
}

// handleContact takes a submission from the HTMX form and answers with the
// fragment for the resulting state. Every POST counts against the client's
// rate limit. Fragments are always 200 so HTMX swaps them in.
func (s *Server) handleContact(c *gin.Context) {
	key := c.ClientIP()
	if s.store != nil {
		key = s.store.HashIP(key)
	}
	if !s.limiter.Allow(key) {
		s.log.Warn("contact rate limited", zap.String("client", key))
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "You have sent several messages already. Please wait a minute and try again.",
		})
		return
	}

	var msg contact.Message
	if err := c.ShouldBind(&msg); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, that submission could not be read. Please try again.",
		})
		return
	}

	if s.contact == nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	_, err := s.contact.Submit(c.Request.Context(), msg)
	var fields contact.FieldErrors
	switch {
	case err == nil:
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
	case errors.As(err, &fields):
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title":   "Contact Me",
			"status":  contact.StatusError,
			"fields":  fields,
			"message": msg,
		})
	default:
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
	}
}
