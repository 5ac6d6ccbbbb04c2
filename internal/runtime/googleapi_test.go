package runtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/mailtidy/internal/gmail"
)

type recordedCall struct {
	method string
	path   string
	query  map[string][]string
	body   map[string]any
}

type fakeGmailAPI struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeGmailAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := recordedCall{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rc.body)
	}
	f.mu.Lock()
	f.calls = append(f.calls, rc)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/gmail/v1/users/me/messages":
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = io.WriteString(w, `{"messages":[{"id":"m1"},{"id":"m2"}],"nextPageToken":"p2"}`)
			return
		}
		_, _ = io.WriteString(w, `{"messages":[{"id":"m3"}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/gmail/v1/users/me/messages/m1":
		_, _ = io.WriteString(w, `{"id":"m1","labelIds":["INBOX","UNREAD"],"payload":{"headers":[`+
			`{"name":"From","value":"News <news@example.com>"},{"name":"From","value":"second@example.com"}]}}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func (f *fakeGmailAPI) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestClient(t *testing.T) (gc.Client, *fakeGmailAPI) {
	t.Helper()
	api := &fakeGmailAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	svc, err := gmail.NewService(
		context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewGoogleAPIClient(svc, ""), api
}

func TestListPagination(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	page, err := client.List(ctx, gc.Query{Raw: "is:unread"}, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(page.IDs, []gc.MessageID{"m1", "m2"}) || page.NextPageToken != "p2" {
		t.Fatalf("unexpected first page %+v", page)
	}
	first := api.last()
	if first.query["q"][0] != "is:unread" {
		t.Fatalf("query not forwarded: %v", first.query)
	}
	if _, ok := first.query["maxResults"]; ok {
		t.Fatalf("maxResults should be omitted for page size 0")
	}

	page, err = client.List(ctx, gc.Query{Raw: "is:unread"}, "p2", 500)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.IDs) != 1 || page.NextPageToken != "" {
		t.Fatalf("unexpected second page %+v", page)
	}
	second := api.last()
	if second.query["pageToken"][0] != "p2" || second.query["maxResults"][0] != "500" {
		t.Fatalf("paging params not forwarded: %v", second.query)
	}
}

func TestGetMetadata(t *testing.T) {
	client, api := newTestClient(t)
	meta, err := client.GetMetadata(context.Background(), "m1", []string{"From"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if from, _ := meta.Header("From"); from != "News <news@example.com>" {
		t.Fatalf("unexpected From %q", from)
	}
	if !reflect.DeepEqual(meta.LabelIDs, []gc.LabelID{"INBOX", "UNREAD"}) {
		t.Fatalf("unexpected labels %v", meta.LabelIDs)
	}
	call := api.last()
	if call.query["format"][0] != "metadata" || call.query["metadataHeaders"][0] != "From" {
		t.Fatalf("unexpected query %v", call.query)
	}
}

func TestMutations(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	if err := client.Modify(ctx, "m1", gc.MarkRead()); err != nil {
		t.Fatalf("modify: %v", err)
	}
	call := api.last()
	if call.method != http.MethodPost || call.path != "/gmail/v1/users/me/messages/m1/modify" {
		t.Fatalf("unexpected modify call %s %s", call.method, call.path)
	}
	if !reflect.DeepEqual(call.body["removeLabelIds"], []any{"UNREAD"}) {
		t.Fatalf("unexpected modify body %v", call.body)
	}

	if err := client.BatchModify(ctx, []gc.MessageID{"m1", "m2"}, gc.MarkRead()); err != nil {
		t.Fatalf("batch modify: %v", err)
	}
	call = api.last()
	if call.path != "/gmail/v1/users/me/messages/batchModify" {
		t.Fatalf("unexpected batch path %s", call.path)
	}
	if !reflect.DeepEqual(call.body["ids"], []any{"m1", "m2"}) {
		t.Fatalf("unexpected batch body %v", call.body)
	}

	if err := client.Delete(ctx, "m2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	call = api.last()
	if call.method != http.MethodDelete || call.path != "/gmail/v1/users/me/messages/m2" {
		t.Fatalf("unexpected delete call %s %s", call.method, call.path)
	}

	if err := client.Trash(ctx, "m3"); err != nil {
		t.Fatalf("trash: %v", err)
	}
	call = api.last()
	if call.method != http.MethodPost || call.path != "/gmail/v1/users/me/messages/m3/trash" {
		t.Fatalf("unexpected trash call %s %s", call.method, call.path)
	}
}
