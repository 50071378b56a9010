package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-session/internal/store"
)

const (
	eventBuffer       = 16
	keepAliveInterval = 30 * time.Second
)

// eventsHandler streams one "state" server-sent event per store mutation,
// starting with the current state.
func eventsHandler(s *store.WeatherStore, done <-chan struct{}) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		updates := make(chan store.State, eventBuffer)
		unsubscribe := s.Subscribe(func(st store.State) {
			enqueueLatest(updates, st)
		})
		initial := s.State()

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()

			if err := streamEvents(w, initial, updates, done, keepAliveInterval); err != nil {
				log.Printf("DEBUG: event stream closed: %v", err)
			}
		}))

		return nil
	}
}

// enqueueLatest queues st, discarding the oldest queued states when the
// client is behind. Listeners are called one at a time, so there is a single
// producer per channel.
func enqueueLatest(updates chan store.State, st store.State) {
	for {
		select {
		case updates <- st:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}

// streamEvents writes initial and then every queued state until a write
// fails or done is closed. States older than one already sent are skipped.
func streamEvents(w *bufio.Writer, initial store.State, updates <-chan store.State, done <-chan struct{}, keepAlive time.Duration) error {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	if err := writeStateEvent(w, initial); err != nil {
		return err
	}
	sent := initial.Version

	for {
		select {
		case <-done:
			return nil
		case st := <-updates:
			if st.Version <= sent {
				continue
			}
			if err := writeStateEvent(w, st); err != nil {
				return err
			}
			sent = st.Version
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
	}
}

// writeStateEvent writes st as an SSE "state" event and flushes it.
func writeStateEvent(w *bufio.Writer, st store.State) error {
	if err := encodeStateEvent(w, st); err != nil {
		return err
	}
	return w.Flush()
}

func encodeStateEvent(w io.Writer, st store.State) error {
	data, err := json.Marshal(viewOf(st))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err
}
