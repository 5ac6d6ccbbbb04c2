// Package gmailtest provides an in-memory gmail.Client for tests.
package gmailtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joshsymonds/mailtidy/internal/gmail"
)

// ErrNoMetadata is returned by GetMetadata for ids missing from Metas.
var ErrNoMetadata = errors.New("gmailtest: no metadata for message")

// Fake serves Pages in order and records every call.
type Fake struct {
	mu sync.Mutex

	Pages []gmail.ListPage
	Metas map[gmail.MessageID]gmail.MessageMeta

	// Fail makes mutations and metadata fetches of the given id fail.
	Fail    map[gmail.MessageID]error
	ListErr error

	Queries     []string
	PageTokens  []string
	PageSizes   []int
	MetaFetches []gmail.MessageID
	Modified    []gmail.MessageID
	ModifyOps   []gmail.ModifyOps
	Batches     [][]gmail.MessageID
	Deleted     []gmail.MessageID
	Trashed     []gmail.MessageID
}

// Pages builds one ListPage per id slice, chaining them with cursors.
func Pages(pages ...[]gmail.MessageID) []gmail.ListPage {
	out := make([]gmail.ListPage, len(pages))
	for i, ids := range pages {
		out[i].IDs = ids
		if i < len(pages)-1 {
			out[i].NextPageToken = fmt.Sprintf("page-%d", i+2)
		}
	}
	return out
}

func (f *Fake) List(ctx context.Context, q gmail.Query, pageToken string, pageSize int) (gmail.ListPage, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, q.Raw)
	f.PageTokens = append(f.PageTokens, pageToken)
	f.PageSizes = append(f.PageSizes, pageSize)
	if f.ListErr != nil {
		return gmail.ListPage{}, f.ListErr
	}
	if len(f.Pages) == 0 {
		return gmail.ListPage{}, nil
	}
	page := f.Pages[0]
	f.Pages = f.Pages[1:]
	return page, nil
}

func (f *Fake) GetMetadata(ctx context.Context, id gmail.MessageID, headers []string) (gmail.MessageMeta, error) {
	_ = ctx
	_ = headers
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MetaFetches = append(f.MetaFetches, id)
	if err := f.Fail[id]; err != nil {
		return gmail.MessageMeta{}, err
	}
	meta, ok := f.Metas[id]
	if !ok {
		return gmail.MessageMeta{}, ErrNoMetadata
	}
	return meta, nil
}

func (f *Fake) Modify(ctx context.Context, id gmail.MessageID, ops gmail.ModifyOps) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Fail[id]; err != nil {
		return err
	}
	f.Modified = append(f.Modified, id)
	f.ModifyOps = append(f.ModifyOps, ops)
	return nil
}

func (f *Fake) BatchModify(ctx context.Context, ids []gmail.MessageID, ops gmail.ModifyOps) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if err := f.Fail[id]; err != nil {
			return err
		}
	}
	f.Batches = append(f.Batches, append([]gmail.MessageID(nil), ids...))
	f.ModifyOps = append(f.ModifyOps, ops)
	return nil
}

func (f *Fake) Delete(ctx context.Context, id gmail.MessageID) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Fail[id]; err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

func (f *Fake) Trash(ctx context.Context, id gmail.MessageID) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Fail[id]; err != nil {
		return err
	}
	f.Trashed = append(f.Trashed, id)
	return nil
}

var _ gmail.Client = (*Fake)(nil)
