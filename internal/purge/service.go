// Package purge deletes messages older than a day threshold.
package purge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joshsymonds/mailtidy/internal/gmail"
	"github.com/joshsymonds/mailtidy/internal/rate"
)

const (
	// DefaultDays is the threshold used when none is given.
	DefaultDays = 30
	// PastYearDays is the threshold behind PastYear. Leap years are not
	// special-cased.
	PastYearDays = 365

	dateLayout = "2006/01/02"
)

// Mode selects what happens to each matched message.
type Mode int

const (
	ModeDelete Mode = iota
	ModeTrash
	ModeDryRun
)

func (m Mode) String() string {
	switch m {
	case ModeDelete:
		return "delete"
	case ModeTrash:
		return "trash"
	case ModeDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Spec describes one purge run.
type Spec struct {
	Days int
	Mode Mode
	// AllPages follows page cursors. Without it only the first page of
	// matches is processed and the result is marked Truncated.
	AllPages bool
	PageSize int
}

// PastYear deletes everything older than one year.
func PastYear() Spec {
	return Spec{Days: PastYearDays}
}

// Result reports what a purge run did.
type Result struct {
	Cutoff    string
	Query     string
	Mode      Mode
	IDs       []gmail.MessageID
	Truncated bool
}

// Service runs purges against a Gmail client.
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

// Cutoff is the UTC calendar date days before now in Gmail's before: syntax.
func Cutoff(now time.Time, days int) string {
	return now.UTC().AddDate(0, 0, -days).Format(dateLayout)
}

// Run lists messages before the cutoff and removes each one individually.
// On failure the returned Result still lists the messages already removed.
func (s *Service) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Days <= 0 {
		return Result{}, errors.New("days must be positive")
	}
	cutoff := Cutoff(s.Clock(), spec.Days)
	query := gmail.Query{Raw: "before:" + cutoff}
	res := Result{Cutoff: cutoff, Query: query.Raw, Mode: spec.Mode}

	s.Logger.InfoContext(ctx, "running purge",
		slog.Int("days", spec.Days),
		slog.String("cutoff", cutoff),
		slog.String("mode", spec.Mode.String()),
	)

	token := ""
	for {
		if err := rate.Wait(ctx, s.Limiter, "rate limit list"); err != nil {
			return res, err
		}
		page, err := s.Client.List(ctx, query, token, spec.PageSize)
		if err != nil {
			return res, fmt.Errorf("list messages: %w", err)
		}
		for _, id := range page.IDs {
			if err := s.remove(ctx, id, spec.Mode); err != nil {
				return res, err
			}
			res.IDs = append(res.IDs, id)
		}
		if page.NextPageToken == "" {
			break
		}
		if !spec.AllPages {
			res.Truncated = true
			s.Logger.WarnContext(ctx, "more messages match the cutoff than one page holds; only the first page was processed",
				slog.String("cutoff", cutoff),
				slog.Int("processed", len(res.IDs)),
			)
			break
		}
		token = page.NextPageToken
	}

	s.Logger.InfoContext(ctx, "purge finished", slog.Int("count", len(res.IDs)), slog.Bool("truncated", res.Truncated))
	return res, nil
}

func (s *Service) remove(ctx context.Context, id gmail.MessageID, mode Mode) error {
	if mode == ModeDryRun {
		s.Logger.DebugContext(ctx, "would delete message", slog.String("id", string(id)))
		return nil
	}
	if err := rate.Wait(ctx, s.Limiter, "rate limit delete"); err != nil {
		return err
	}
	switch mode {
	case ModeTrash:
		if err := s.Client.Trash(ctx, id); err != nil {
			return fmt.Errorf("trash message %s: %w", id, err)
		}
		s.Logger.InfoContext(ctx, "trashed message", slog.String("id", string(id)))
	default:
		if err := s.Client.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete message %s: %w", id, err)
		}
		s.Logger.InfoContext(ctx, "deleted message", slog.String("id", string(id)))
	}
	return nil
}

// PrintHuman writes the per-message confirmations.
func PrintHuman(res Result, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var builder strings.Builder
	if len(res.IDs) == 0 {
		builder.WriteString("No older messages to delete.\n")
	}
	verb := "Deleted"
	switch res.Mode {
	case ModeTrash:
		verb = "Trashed"
	case ModeDryRun:
		verb = "Would delete"
	}
	for _, id := range res.IDs {
		fmt.Fprintf(&builder, "%s message with ID %s.\n", verb, id)
	}
	if res.Truncated {
		fmt.Fprintf(&builder, "More messages before %s remain; run again or pass -all-pages.\n", res.Cutoff)
	}
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return fmt.Errorf("write purge report: %w", err)
	}
	return nil
}
