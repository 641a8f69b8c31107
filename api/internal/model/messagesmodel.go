package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/builder"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/stringx"
)

var (
	messagesFieldNames        = builder.RawFieldNames(&Messages{})
	messagesRows              = strings.Join(messagesFieldNames, ",")
	messagesRowsExpectAutoSet = strings.Join(stringx.Remove(messagesFieldNames, "`id`"), ",")
)

type (
	// MessagesModel stores root messages, at most one per group and calendar day.
	MessagesModel interface {
		Insert(ctx context.Context, data *Messages) error
		// FindLatest returns the most recently created root message of a group.
		FindLatest(ctx context.Context, groupId int64) (*Messages, error)
		// FindCreatedBetween returns the earliest root message created in [from, to).
		FindCreatedBetween(ctx context.Context, groupId int64, from, to time.Time) (*Messages, error)
		UpdateText(ctx context.Context, id int64, text string) error
	}

	defaultMessagesModel struct {
		conn  sqlx.SqlConn
		table string
	}

	Messages struct {
		Id        int64  `db:"id"`
		GroupId   int64  `db:"group_id"`
		MessageId int64  `db:"message_id"`
		Text      string `db:"text"`
		CreatedAt int64  `db:"created_at"` // unix milliseconds
	}
)

func NewMessagesModel(conn sqlx.SqlConn) MessagesModel {
	return &defaultMessagesModel{
		conn:  conn,
		table: "`messages`",
	}
}

func (m *Messages) Created() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

func (m *defaultMessagesModel) Insert(ctx context.Context, data *Messages) error {
	query := fmt.Sprintf("insert into %s (%s) values (?, ?, ?, ?)", m.table, messagesRowsExpectAutoSet)
	ret, err := m.conn.ExecCtx(ctx, query, data.GroupId, data.MessageId, data.Text, data.CreatedAt)
	if err != nil {
		return err
	}

	id, err := ret.LastInsertId()
	if err != nil {
		return err
	}
	data.Id = id
	return nil
}

func (m *defaultMessagesModel) FindLatest(ctx context.Context, groupId int64) (*Messages, error) {
	query := fmt.Sprintf("select %s from %s where `group_id` = ? order by `created_at` desc, `id` desc limit 1",
		messagesRows, m.table)
	return m.findOne(ctx, query, groupId)
}

func (m *defaultMessagesModel) FindCreatedBetween(ctx context.Context, groupId int64, from, to time.Time) (*Messages, error) {
	query := fmt.Sprintf("select %s from %s where `group_id` = ? and `created_at` >= ? and `created_at` < ? order by `created_at`, `id` limit 1",
		messagesRows, m.table)
	return m.findOne(ctx, query, groupId, from.UnixMilli(), to.UnixMilli())
}

func (m *defaultMessagesModel) UpdateText(ctx context.Context, id int64, text string) error {
	query := fmt.Sprintf("update %s set `text` = ? where `id` = ?", m.table)
	_, err := m.conn.ExecCtx(ctx, query, text, id)
	return err
}

func (m *defaultMessagesModel) findOne(ctx context.Context, query string, args ...any) (*Messages, error) {
	var resp Messages
	err := m.conn.QueryRowCtx(ctx, &resp, query, args...)
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}
