package senders

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PrintHuman writes one "Sender:" block per distinct sender.
func PrintHuman(rep Report, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	var builder strings.Builder
	if len(rep.Senders) == 0 {
		builder.WriteString("No subscription-related emails found.\n")
	} else {
		builder.WriteString("Unique Subscription-related senders:\n")
		for _, s := range rep.Senders {
			fmt.Fprintf(&builder, "Sender: %s\n---\n", s.From)
		}
	}
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return fmt.Errorf("write human report: %w", err)
	}
	return nil
}

// FilterSnippets renders gmailctl rules that archive and mark read mail
// from each sender address. Senders without a parseable address are
// skipped and each address appears once.
func FilterSnippets(senders []Sender) []string {
	seen := map[string]struct{}{}
	snippets := make([]string, 0, len(senders))
	for _, s := range senders {
		if s.Address == "" {
			continue
		}
		if _, dup := seen[s.Address]; dup {
			continue
		}
		seen[s.Address] = struct{}{}
		snippets = append(snippets, fmt.Sprintf(`{
  filter: { from: "%s" },
  actions: { archive: true, markRead: true },
}`, s.Address))
	}
	return snippets
}

// PrintSnippets writes FilterSnippets as a jsonnet rules list.
func PrintSnippets(rep Report, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	snippets := FilterSnippets(rep.Senders)
	if len(snippets) == 0 {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("\nSuggested gmailctl rules:\n[\n")
	for _, snip := range snippets {
		builder.WriteString(snip)
		builder.WriteString(",\n")
	}
	builder.WriteString("]\n")
	if _, err := io.WriteString(w, builder.String()); err != nil {
		return fmt.Errorf("write snippets: %w", err)
	}
	return nil
}

// WriteJSON serializes the report to a path relative to the working
// directory.
func WriteJSON(rep Report, path string) error {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return fmt.Errorf("path must not be empty")
	}
	clean = filepath.Clean(clean)
	if filepath.IsAbs(clean) {
		return fmt.Errorf("output path must be relative, got %s", clean)
	}
	if strings.HasPrefix(clean, "..") {
		return fmt.Errorf("output path %s escapes working directory", clean)
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	abs := filepath.Join(wd, clean)
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304
	if err != nil {
		return fmt.Errorf("create %s: %w", abs, err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if encodeErr := enc.Encode(rep); encodeErr != nil {
		return fmt.Errorf("encode report: %w", encodeErr)
	}
	return nil
}
