package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/builder"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var (
	groupsFieldNames = builder.RawFieldNames(&Groups{})
	groupsRows       = strings.Join(groupsFieldNames, ",")
)

type (
	GroupsModel interface {
		Insert(ctx context.Context, data *Groups) error
		FindOne(ctx context.Context, groupId int64) (*Groups, error)
		// FindAll lists onboarded groups, oldest first.
		FindAll(ctx context.Context) ([]*Groups, error)
	}

	defaultGroupsModel struct {
		conn  sqlx.SqlConn
		table string
	}

	Groups struct {
		GroupId   int64  `db:"group_id"`
		Title     string `db:"title"`
		CreatedAt int64  `db:"created_at"`
	}
)

func NewGroupsModel(conn sqlx.SqlConn) GroupsModel {
	return &defaultGroupsModel{
		conn:  conn,
		table: "`groups`",
	}
}

// Insert ignores a group that is already onboarded.
func (m *defaultGroupsModel) Insert(ctx context.Context, data *Groups) error {
	query := fmt.Sprintf("insert or ignore into %s (%s) values (?, ?, ?)", m.table, groupsRows)
	_, err := m.conn.ExecCtx(ctx, query, data.GroupId, data.Title, data.CreatedAt)
	return err
}

func (m *defaultGroupsModel) FindOne(ctx context.Context, groupId int64) (*Groups, error) {
	query := fmt.Sprintf("select %s from %s where `group_id` = ? limit 1", groupsRows, m.table)
	var resp Groups
	err := m.conn.QueryRowCtx(ctx, &resp, query, groupId)
	switch err {
	case nil:
		return &resp, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, err
	}
}

func (m *defaultGroupsModel) FindAll(ctx context.Context) ([]*Groups, error) {
	query := fmt.Sprintf("select %s from %s order by `created_at`, `group_id`", groupsRows, m.table)
	var resp []*Groups
	if err := m.conn.QueryRowsCtx(ctx, &resp, query); err != nil {
		return nil, err
	}
	return resp, nil
}
