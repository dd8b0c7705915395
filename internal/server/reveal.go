package server

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/termfolio/internal/reveal"
)

type frameEvent struct {
	Index     int    `json:"index"`
	Key       string `json:"key"`
	Shown     string `json:"shown"`
	Revealing bool   `json:"revealing"`
	Phase     string `json:"phase"`
}

// handleReveal streams one section's reveal as server-sent events. The
// client opens the stream on viewport entry, so the request is the entry
// signal; closing it tears the sequencer down.
func (s *Server) handleReveal(c *gin.Context) {
	id := c.Param("id")
	sec, ok := s.content.Get().Section(id)
	if !ok {
		c.String(http.StatusNotFound, "unknown section")
		return
	}
	stages := sec.RevealStages()

	// One trigger emits a Scheduled frame per stage and one frame per rune,
	// so the buffer never fills and the observer never blocks.
	size := 1
	for _, st := range stages {
		size += 2 + utf8.RuneCountInString(st.Text)
	}
	frames := make(chan reveal.Frame, size)
	seq, err := reveal.New(stages,
		reveal.WithClock(s.clock),
		reveal.WithObserver(func(f reveal.Frame) {
			select {
			case frames <- f:
			default:
			}
		}))
	if err != nil {
		c.String(http.StatusInternalServerError, "invalid reveal script")
		return
	}
	defer seq.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(f reveal.Frame) {
		c.SSEvent("frame", frameEvent{
			Index:     f.Index,
			Key:       f.Key,
			Shown:     f.Shown,
			Revealing: f.Revealing,
			Phase:     f.Phase.String(),
		})
		c.Writer.Flush()
	}

	seq.Enter()
	done := seq.Done()
	ctx := c.Request.Context()
	for {
		select {
		case f := <-frames:
			send(f)
		case <-done:
			// Close waits for an in-flight delivery, after which the buffer
			// holds every remaining frame.
			seq.Close()
		drain:
			for {
				select {
				case f := <-frames:
					send(f)
				default:
					break drain
				}
			}
			c.SSEvent("complete", gin.H{"section": id})
			c.Writer.Flush()
			return
		case <-ctx.Done():
			return
		}
	}
}
