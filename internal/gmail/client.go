package gmail

import "context"

// Client is the narrow Gmail surface required by mailtidy.
type Client interface {
	List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error)
	GetMetadata(ctx context.Context, id MessageID, headers []string) (MessageMeta, error)
	Modify(ctx context.Context, id MessageID, ops ModifyOps) error
	BatchModify(ctx context.Context, ids []MessageID, ops ModifyOps) error
	Delete(ctx context.Context, id MessageID) error
	Trash(ctx context.Context, id MessageID) error
}
