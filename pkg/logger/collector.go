package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships aggregated log batches, e.g. to the events topic.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval, default 30s
	CountThreshold int           // distinct entries that force a flush, default 100
	Topic          string
	Publisher      Publisher
	PublishTimeout time.Duration // default 10s
}

// AggregatedLogEntry is one distinct log line and how often it was seen.
// Fields holds the fields of the most recent occurrence.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector aggregates log lines by level, caller and message, and
// publishes them in batches from a single goroutine.
type LogCollector struct {
	config  CollectionConfig
	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry
	kick    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}

	c := &LogCollector{
		config:  cfg,
		entries: make(map[uint64]*AggregatedLogEntry),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

// AddLog records one occurrence. It never blocks on publishing.
func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, caller, message)

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		e.Count++
		e.LastSeen = now
		e.Fields = fields
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	full := len(c.entries) >= c.config.CountThreshold
	c.mu.Unlock()

	if full {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
}

func entryKey(level, caller, message string) uint64 {
	h := fnv.New64a()
	for _, s := range []string{level, caller, message} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func (c *LogCollector) loop() {
	defer c.wg.Done()

	t := time.NewTicker(c.config.TimeInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
		case <-c.kick:
		case <-c.done:
			c.flush()
			return
		}
		c.flush()
	}
}

func (c *LogCollector) flush() {
	c.mu.Lock()
	if len(c.entries) == 0 {
		c.mu.Unlock()
		return
	}
	batch := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	c.entries = make(map[uint64]*AggregatedLogEntry)
	c.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].FirstSeen.Before(batch[j].FirstSeen) })

	if c.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.PublishTimeout)
	defer cancel()
	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
		// the logger cannot log its own shipping failures
		fmt.Fprintf(os.Stderr, "failed to send aggregated logs: %v\n", err)
	}
}

// Close flushes what is pending and stops the collector. Safe to call twice.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}
