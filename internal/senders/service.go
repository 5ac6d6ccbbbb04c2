// Package senders lists the distinct senders of subscription-like mail.
package senders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joshsymonds/mailtidy/internal/gmail"
	"github.com/joshsymonds/mailtidy/internal/rate"
)

const (
	// DefaultQuery matches subscription confirmations and newsletters.
	DefaultQuery = "subject:subscribe OR subject:subscription"
	// DefaultPageSize is the Gmail maximum for messages.list.
	DefaultPageSize = 500
	// UnknownSender stands in for a message without a From header.
	UnknownSender = "Unknown Sender"

	headerFrom = "From"
)

// Options controls one enumeration.
type Options struct {
	Query    string
	PageSize int
}

// Sender is one distinct From header value.
type Sender struct {
	From    string `json:"from"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Count   int    `json:"count"`
}

// Report summarizes the senders found.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Query       string    `json:"query"`
	Total       int       `json:"total"`
	Senders     []Sender  `json:"senders"`
}

// Service enumerates senders against a Gmail client.
type Service struct {
	Client  gmail.Client
	Limiter rate.Limiter
	Logger  *slog.Logger
	Clock   func() time.Time
}

// NewService constructs a Service with sane defaults.
func NewService(client gmail.Client, limiter rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{Client: client, Limiter: limiter, Logger: logger, Clock: time.Now}
}

// Run collects every matching message id across all pages, then fetches
// the From header of each one. Identical header values collapse into one
// Sender.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	query := opts.Query
	if query == "" {
		query = DefaultQuery
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}
	s.Logger.InfoContext(ctx, "enumerating senders", slog.String("query", query))

	ids, err := s.collectIDs(ctx, gmail.Query{Raw: query}, pageSize)
	if err != nil {
		return Report{}, err
	}

	rep := Report{GeneratedAt: s.Clock(), Query: query, Total: len(ids)}
	if len(ids) == 0 {
		return rep, nil
	}

	seen := map[string]*Sender{}
	for _, id := range ids {
		if err := rate.Wait(ctx, s.Limiter, "rate limit metadata"); err != nil {
			return Report{}, err
		}
		meta, err := s.Client.GetMetadata(ctx, id, []string{headerFrom})
		if err != nil {
			return Report{}, fmt.Errorf("get metadata %s: %w", id, err)
		}
		from, ok := meta.Header(headerFrom)
		if !ok {
			from = UnknownSender
		}
		st := seen[from]
		if st == nil {
			st = newSender(from)
			seen[from] = st
		}
		st.Count++
	}
	rep.Senders = rankSenders(seen)
	s.Logger.InfoContext(ctx, "senders enumerated",
		slog.Int("messages", rep.Total),
		slog.Int("senders", len(rep.Senders)),
	)
	return rep, nil
}

func (s *Service) collectIDs(ctx context.Context, query gmail.Query, pageSize int) ([]gmail.MessageID, error) {
	var (
		all   []gmail.MessageID
		token string
	)
	for {
		if err := rate.Wait(ctx, s.Limiter, "rate limit messages"); err != nil {
			return nil, err
		}
		page, err := s.Client.List(ctx, query, token, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		all = append(all, page.IDs...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

func newSender(from string) *Sender {
	st := &Sender{From: from}
	if from == UnknownSender {
		return st
	}
	if name, addr, ok := parseFrom(from); ok {
		st.Name, st.Address = name, addr
		st.Domain = extractDomain(addr)
	}
	return st
}

func rankSenders(m map[string]*Sender) []Sender {
	out := make([]Sender, 0, len(m))
	for _, st := range m {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].From < out[j].From
		}
		return out[i].Count > out[j].Count
	})
	return out
}
