package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type DigestEntry struct {
	Message   string
	Level     slog.Level
	Timestamp time.Time
}

// DigestBuffer collects warnings per admin and sends them as one message per interval.
type DigestBuffer struct {
	mu       sync.Mutex
	entries  map[int64][]DigestEntry
	interval time.Duration
	send     func(chatId int64, text string)
	stopCh   chan struct{}
	done     chan struct{}
}

func NewDigestBuffer(bot *TgBot, interval time.Duration) *DigestBuffer {
	return newDigestBuffer(bot.plainResponse, interval)
}

func newDigestBuffer(send func(chatId int64, text string), interval time.Duration) *DigestBuffer {
	return &DigestBuffer{
		entries:  make(map[int64][]DigestEntry),
		interval: interval,
		send:     send,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (d *DigestBuffer) Add(chatId int64, msg string, level slog.Level) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[chatId] = append(d.entries[chatId], DigestEntry{
		Message:   msg,
		Level:     level,
		Timestamp: time.Now(),
	})
}

func (d *DigestBuffer) StartTicker() {
	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.Flush()
			case <-d.stopCh:
				d.Flush() // final flush
				return
			}
		}
	}()
}

func (d *DigestBuffer) Flush() {
	d.mu.Lock()
	snapshot := d.entries
	d.entries = make(map[int64][]DigestEntry)
	d.mu.Unlock()

	for chatId, entries := range snapshot {
		if len(entries) == 0 {
			continue
		}
		for _, part := range splitMessage(formatDigest(entries), maxTelegramMessageLen) {
			d.send(chatId, part)
		}
	}
}

func (d *DigestBuffer) Stop() {
	close(d.stopCh)
	<-d.done
}

// formatDigest renders entries in arrival order; messages are already MarkdownV2.
func formatDigest(entries []DigestEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Digest* \\(%d messages\\)\n\n", len(entries)))
	for _, e := range entries {
		ts := e.Timestamp.Format("15:04")
		sb.WriteString(fmt.Sprintf("`%s` %s\n\n", ts, e.Message))
	}
	return sb.String()
}
