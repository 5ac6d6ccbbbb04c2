// Package sweep clears the unread flag on every unread message.
package sweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joshsymonds/mailtidy/internal/gmail"
	"github.com/joshsymonds/mailtidy/internal/rate"
)

// batchLimit is the Gmail API cap on ids per batchModify call.
const batchLimit = 1000

// Spec describes one sweep.
type Spec struct {
	Label    string // optional: restrict the sweep to this label
	Batch    bool   // use batchModify instead of one modify per message
	DryRun   bool
	PageSize int
}

// Result counts what the sweep saw and changed.
type Result struct {
	Total  int
	Marked int
	Pages  int
	DryRun bool
}

// Service marks unread mail as read.
type Service struct {
	Client  gmail.Client
	Limiter rate.Limiter
	Logger  *slog.Logger
}

// NewService constructs a Service with sane defaults.
func NewService(client gmail.Client, limiter rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Service{Client: client, Limiter: limiter, Logger: logger}
}

// Query builds the unread search, optionally scoped to a label.
func Query(label string) gmail.Query {
	if label == "" {
		return gmail.Query{Raw: "is:unread"}
	}
	return gmail.Query{Raw: fmt.Sprintf(`label:"%s" is:unread`, label)}
}

// Run walks the unread listing page by page. Each non-empty page is marked
// read before the next one is requested; an empty page or a missing cursor
// ends the walk. Total is the sum of all page sizes seen.
func (s *Service) Run(ctx context.Context, spec Spec) (Result, error) {
	q := Query(spec.Label)
	res := Result{DryRun: spec.DryRun}

	page, err := s.list(ctx, q, "", spec.PageSize)
	if err != nil {
		return res, err
	}
	res.Pages = 1
	res.Total = len(page.IDs)

	for len(page.IDs) > 0 {
		marked, markErr := s.mark(ctx, page.IDs, spec)
		res.Marked += marked
		if markErr != nil {
			return res, markErr
		}
		if page.NextPageToken == "" {
			break
		}
		page, err = s.list(ctx, q, page.NextPageToken, spec.PageSize)
		if err != nil {
			return res, err
		}
		res.Pages++
		res.Total += len(page.IDs)
	}

	if res.Total == 0 {
		s.Logger.InfoContext(ctx, "no unread messages", "label", spec.Label)
		return res, nil
	}
	s.Logger.InfoContext(ctx, "swept",
		"label", spec.Label,
		"count", res.Total,
		"pages", res.Pages,
		"dry_run", spec.DryRun,
	)
	return res, nil
}

func (s *Service) list(ctx context.Context, q gmail.Query, token string, pageSize int) (gmail.ListPage, error) {
	if err := rate.Wait(ctx, s.Limiter, "rate limit list"); err != nil {
		return gmail.ListPage{}, err
	}
	page, err := s.Client.List(ctx, q, token, pageSize)
	if err != nil {
		return gmail.ListPage{}, fmt.Errorf("list unread messages: %w", err)
	}
	return page, nil
}

func (s *Service) mark(ctx context.Context, ids []gmail.MessageID, spec Spec) (int, error) {
	if spec.DryRun {
		return 0, nil
	}
	ops := gmail.MarkRead()
	if spec.Batch {
		marked := 0
		for i := 0; i < len(ids); i += batchLimit {
			j := min(i+batchLimit, len(ids))
			if err := rate.Wait(ctx, s.Limiter, "rate limit batch modify"); err != nil {
				return marked, err
			}
			if err := s.Client.BatchModify(ctx, ids[i:j], ops); err != nil {
				return marked, fmt.Errorf("batch mark read: %w", err)
			}
			marked += j - i
		}
		return marked, nil
	}
	for n, id := range ids {
		if err := rate.Wait(ctx, s.Limiter, "rate limit modify"); err != nil {
			return n, err
		}
		if err := s.Client.Modify(ctx, id, ops); err != nil {
			return n, fmt.Errorf("mark %s read: %w", id, err)
		}
	}
	return len(ids), nil
}

// PrintHuman writes the final count.
func PrintHuman(res Result, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var err error
	if res.DryRun {
		_, err = fmt.Fprintf(w, "Found %d unread messages (dry run, nothing marked).\n", res.Total)
	} else {
		_, err = fmt.Fprintf(w, "Marked %d unread messages as read.\n", res.Total)
	}
	if err != nil {
		return fmt.Errorf("write sweep report: %w", err)
	}
	return nil
}
