// Package runtime wires configuration, credentials and the Gmail API
// service into the narrow client used by the maintenance commands.
package runtime

import (
	"context"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/mailtidy/internal/gmail"
)

type googleClient struct {
	svc  *gmail.Service
	user string
}

// NewGoogleAPIClient wraps svc for the given user id ("me" for the
// authorized account).
func NewGoogleAPIClient(svc *gmail.Service, user string) gc.Client {
	if user == "" {
		user = "me"
	}
	return &googleClient{svc: svc, user: user}
}

func (g *googleClient) List(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ListPage, error) {
	call := g.svc.Users.Messages.List(g.user).Q(q.Raw)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	if pageSize > 0 {
		call = call.MaxResults(int64(pageSize))
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ListPage{}, err
	}
	ids := make([]gc.MessageID, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, gc.MessageID(m.Id))
	}
	return gc.ListPage{IDs: ids, NextPageToken: res.NextPageToken}, nil
}

func (g *googleClient) GetMetadata(ctx context.Context, id gc.MessageID, headers []string) (gc.MessageMeta, error) {
	msg, err := g.svc.Users.Messages.Get(g.user, string(id)).
		Format("metadata").
		MetadataHeaders(headers...).
		Context(ctx).
		Do()
	if err != nil {
		return gc.MessageMeta{}, err
	}
	h := map[string]string{}
	if msg.Payload != nil {
		for _, hd := range msg.Payload.Headers {
			// first occurrence wins, as with a header lookup by name
			if _, seen := h[hd.Name]; !seen {
				h[hd.Name] = hd.Value
			}
		}
	}
	return gc.MessageMeta{ID: id, Headers: h, LabelIDs: toLabelIDs(msg.LabelIds)}, nil
}

func (g *googleClient) Modify(ctx context.Context, id gc.MessageID, ops gc.ModifyOps) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    toStringsL(ops.AddLabels),
		RemoveLabelIds: toStringsL(ops.RemoveLabels),
	}
	_, err := g.svc.Users.Messages.Modify(g.user, string(id), req).Context(ctx).Do()
	return err
}

func (g *googleClient) BatchModify(ctx context.Context, ids []gc.MessageID, ops gc.ModifyOps) error {
	req := &gmail.BatchModifyMessagesRequest{
		Ids:            toStrings(ids),
		AddLabelIds:    toStringsL(ops.AddLabels),
		RemoveLabelIds: toStringsL(ops.RemoveLabels),
	}
	return g.svc.Users.Messages.BatchModify(g.user, req).Context(ctx).Do()
}

func (g *googleClient) Delete(ctx context.Context, id gc.MessageID) error {
	return g.svc.Users.Messages.Delete(g.user, string(id)).Context(ctx).Do()
}

func (g *googleClient) Trash(ctx context.Context, id gc.MessageID) error {
	_, err := g.svc.Users.Messages.Trash(g.user, string(id)).Context(ctx).Do()
	return err
}

func toStrings(ids []gc.MessageID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toStringsL(ids []gc.LabelID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func toLabelIDs(ids []string) []gc.LabelID {
	out := make([]gc.LabelID, len(ids))
	for i, id := range ids {
		out[i] = gc.LabelID(id)
	}
	return out
}
