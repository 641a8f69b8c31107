package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qx/ledger_robot/api/internal/calc"
	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

// StatisticsLedger owns the priced entries of every group.
type StatisticsLedger struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewStatisticsLedger(ctx context.Context, svcCtx *svc.ServiceContext) *StatisticsLedger {
	return &StatisticsLedger{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// AddEntry records amount-percentage submitted by message ref.
func (l *StatisticsLedger) AddEntry(groupID, ref int64, amount, percentage float64) (*model.Statistics, error) {
	entry := &model.Statistics{
		EntryId:    uuid.New().String(),
		GroupId:    groupID,
		MessageId:  ref,
		Sum:        amount,
		Percentage: percentage,
		CalcSum:    calc.Net(amount, percentage),
		CreatedAt:  l.svcCtx.Now().UnixMilli(),
	}

	if err := l.svcCtx.StatisticsModel.Insert(l.ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: insert entry: %v", types.ErrPersistence, err)
	}

	l.Infow("entry added",
		logx.Field("group", groupID),
		logx.Field("message", ref),
		logx.Field("calc_sum", entry.CalcSum))
	return entry, nil
}

// RemoveEntry deletes the entry submitted by message ref.
func (l *StatisticsLedger) RemoveEntry(groupID, ref int64) (*model.Statistics, error) {
	deleted, err := l.svcCtx.StatisticsModel.DeleteByMessage(l.ctx, groupID, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: delete entry: %v", types.ErrPersistence, err)
	}
	if len(deleted) == 0 {
		return nil, fmt.Errorf("%w: no entry for message %d", types.ErrNotFound, ref)
	}

	return deleted[0], nil
}

// SetCourse prices the entries submitted by message ref. It does not settle them.
func (l *StatisticsLedger) SetCourse(groupID, ref int64, course float64) ([]*model.Statistics, error) {
	updated, err := l.svcCtx.StatisticsModel.UpdateCourseByMessage(l.ctx, groupID, ref, course)
	if err != nil {
		return nil, fmt.Errorf("%w: set course: %v", types.ErrPersistence, err)
	}
	if len(updated) == 0 {
		return nil, fmt.Errorf("%w: no entry for message %d", types.ErrNotFound, ref)
	}

	return updated, nil
}

// SettleAllPriced marks every priced, unpaid entry of every group as paid
// and returns the entries it changed.
func (l *StatisticsLedger) SettleAllPriced() ([]*model.Statistics, error) {
	settled, err := l.svcCtx.StatisticsModel.SettlePriced(l.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: settle: %v", types.ErrPersistence, err)
	}

	l.Infow("entries settled", logx.Field("count", len(settled)))
	return settled, nil
}

// Aggregate summarizes the entries a group created on date's calendar day.
func (l *StatisticsLedger) Aggregate(groupID int64, date time.Time) (*types.Aggregate, error) {
	from, to := types.DayBounds(date, l.svcCtx.Location)
	entries, err := l.svcCtx.StatisticsModel.FindCreatedBetween(l.ctx, groupID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", types.ErrPersistence, err)
	}

	agg := summarize(entries)
	agg.GroupID = groupID
	agg.Date = from
	return agg, nil
}

// Totals summarizes every entry of a group regardless of day.
func (l *StatisticsLedger) Totals(groupID int64) (*types.Aggregate, error) {
	entries, err := l.svcCtx.StatisticsModel.FindByGroup(l.ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", types.ErrPersistence, err)
	}

	agg := summarize(entries)
	agg.GroupID = groupID
	return agg, nil
}

// summarize rounds the running sums after every term.
func summarize(entries []*model.Statistics) *types.Aggregate {
	agg := &types.Aggregate{
		LineItems: make([]types.LineItem, 0, len(entries)),
	}

	for _, e := range entries {
		agg.FullSum = calc.Accumulate(agg.FullSum, e.Sum)
		switch {
		case e.IsPaid && e.Course.Valid:
			agg.PaidSum = calc.Accumulate(agg.PaidSum, e.CalcSum/e.Course.Float64)
		case !e.IsPaid && e.Course.Valid:
			agg.ToPaySum = calc.Accumulate(agg.ToPaySum, e.CalcSum/e.Course.Float64)
		}
		agg.LineItems = append(agg.LineItems, types.LineItem{
			Sum:        e.Sum,
			Percentage: e.Percentage,
			CalcSum:    e.CalcSum,
		})
	}

	return agg
}
