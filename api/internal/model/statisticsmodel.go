package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/builder"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var (
	statisticsFieldNames = builder.RawFieldNames(&Statistics{})
	statisticsRows       = strings.Join(statisticsFieldNames, ",")
)

type (
	// StatisticsModel stores priced ledger entries. Every mutation touches
	// whole rows in a single statement or transaction.
	StatisticsModel interface {
		Insert(ctx context.Context, data *Statistics) error
		FindByGroup(ctx context.Context, groupId int64) ([]*Statistics, error)
		// FindCreatedBetween lists a group's entries created in [from, to), in insertion order.
		FindCreatedBetween(ctx context.Context, groupId int64, from, to time.Time) ([]*Statistics, error)
		FindByMessage(ctx context.Context, groupId, messageId int64) ([]*Statistics, error)
		// DeleteByMessage removes and returns the entries submitted by messageId.
		DeleteByMessage(ctx context.Context, groupId, messageId int64) ([]*Statistics, error)
		// UpdateCourseByMessage sets course on the entries submitted by messageId and returns them.
		UpdateCourseByMessage(ctx context.Context, groupId, messageId int64, course float64) ([]*Statistics, error)
		// SettlePriced marks every unpaid entry with a course as paid, across all
		// groups, and returns the entries it changed.
		SettlePriced(ctx context.Context) ([]*Statistics, error)
	}

	defaultStatisticsModel struct {
		conn  sqlx.SqlConn
		table string
	}

	Statistics struct {
		EntryId    string          `db:"entry_id"`
		GroupId    int64           `db:"group_id"`
		MessageId  int64           `db:"message_id"`
		Sum        float64         `db:"sum"`
		Percentage float64         `db:"percentage"`
		CalcSum    float64         `db:"calc_sum"`
		Course     sql.NullFloat64 `db:"course"`
		IsPaid     bool            `db:"is_paid"`
		CreatedAt  int64           `db:"created_at"` // unix milliseconds
	}
)

func NewStatisticsModel(conn sqlx.SqlConn) StatisticsModel {
	return &defaultStatisticsModel{
		conn:  conn,
		table: "`statistics`",
	}
}

func (s *Statistics) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

func (m *defaultStatisticsModel) Insert(ctx context.Context, data *Statistics) error {
	query := fmt.Sprintf("insert into %s (%s) values (?, ?, ?, ?, ?, ?, ?, ?, ?)", m.table, statisticsRows)
	_, err := m.conn.ExecCtx(ctx, query, data.EntryId, data.GroupId, data.MessageId, data.Sum,
		data.Percentage, data.CalcSum, data.Course, data.IsPaid, data.CreatedAt)
	return err
}

func (m *defaultStatisticsModel) FindByGroup(ctx context.Context, groupId int64) ([]*Statistics, error) {
	query := fmt.Sprintf("select %s from %s where `group_id` = ? order by `created_at`, rowid",
		statisticsRows, m.table)
	return m.findMany(ctx, m.conn, query, groupId)
}

func (m *defaultStatisticsModel) FindCreatedBetween(ctx context.Context, groupId int64, from, to time.Time) ([]*Statistics, error) {
	query := fmt.Sprintf("select %s from %s where `group_id` = ? and `created_at` >= ? and `created_at` < ? order by `created_at`, rowid",
		statisticsRows, m.table)
	return m.findMany(ctx, m.conn, query, groupId, from.UnixMilli(), to.UnixMilli())
}

func (m *defaultStatisticsModel) FindByMessage(ctx context.Context, groupId, messageId int64) ([]*Statistics, error) {
	return m.findByMessage(ctx, m.conn, groupId, messageId)
}

func (m *defaultStatisticsModel) DeleteByMessage(ctx context.Context, groupId, messageId int64) ([]*Statistics, error) {
	var deleted []*Statistics
	err := m.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		found, err := m.findByMessage(ctx, session, groupId, messageId)
		if err != nil {
			return err
		}

		query := fmt.Sprintf("delete from %s where `group_id` = ? and `message_id` = ?", m.table)
		if _, err := session.ExecCtx(ctx, query, groupId, messageId); err != nil {
			return err
		}

		deleted = found
		return nil
	})
	return deleted, err
}

func (m *defaultStatisticsModel) UpdateCourseByMessage(ctx context.Context, groupId, messageId int64, course float64) ([]*Statistics, error) {
	var updated []*Statistics
	err := m.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		query := fmt.Sprintf("update %s set `course` = ? where `group_id` = ? and `message_id` = ?", m.table)
		if _, err := session.ExecCtx(ctx, query, course, groupId, messageId); err != nil {
			return err
		}

		found, err := m.findByMessage(ctx, session, groupId, messageId)
		if err != nil {
			return err
		}

		updated = found
		return nil
	})
	return updated, err
}

func (m *defaultStatisticsModel) SettlePriced(ctx context.Context) ([]*Statistics, error) {
	var settled []*Statistics
	err := m.conn.TransactCtx(ctx, func(ctx context.Context, session sqlx.Session) error {
		query := fmt.Sprintf("select %s from %s where `is_paid` = 0 and `course` is not null order by `created_at`, rowid",
			statisticsRows, m.table)
		found, err := m.findMany(ctx, session, query)
		if err != nil {
			return err
		}

		query = fmt.Sprintf("update %s set `is_paid` = 1 where `is_paid` = 0 and `course` is not null", m.table)
		if _, err := session.ExecCtx(ctx, query); err != nil {
			return err
		}

		for _, entry := range found {
			entry.IsPaid = true
		}
		settled = found
		return nil
	})
	return settled, err
}

func (m *defaultStatisticsModel) findByMessage(ctx context.Context, session sqlx.Session, groupId, messageId int64) ([]*Statistics, error) {
	query := fmt.Sprintf("select %s from %s where `group_id` = ? and `message_id` = ? order by `created_at`, rowid",
		statisticsRows, m.table)
	return m.findMany(ctx, session, query, groupId, messageId)
}

func (m *defaultStatisticsModel) findMany(ctx context.Context, session sqlx.Session, query string, args ...any) ([]*Statistics, error) {
	var resp []*Statistics
	if err := session.QueryRowsCtx(ctx, &resp, query, args...); err != nil {
		return nil, err
	}
	return resp, nil
}
