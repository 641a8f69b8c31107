package logic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qx/ledger_robot/api/internal/calc"
	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/mr"
)

// CommandLogic runs one already authorized chat command.
type CommandLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCommandLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CommandLogic {
	return &CommandLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Start onboards the group on first use and opens today's root message.
func (l *CommandLogic) Start(groupID int64, title string) error {
	_, err := l.svcCtx.GroupsModel.FindOne(l.ctx, groupID)
	switch {
	case isNotFound(err):
		group := &model.Groups{
			GroupId:   groupID,
			Title:     title,
			CreatedAt: l.svcCtx.Now().UnixMilli(),
		}
		if err := l.svcCtx.GroupsModel.Insert(l.ctx, group); err != nil {
			return fmt.Errorf("%w: insert group %d: %v", types.ErrPersistence, groupID, err)
		}
		l.Infow("group onboarded", logx.Field("group", groupID), logx.Field("title", title))
	case err != nil:
		return fmt.Errorf("%w: find group %d: %v", types.ErrPersistence, groupID, err)
	}

	agg, err := NewStatisticsLedger(l.ctx, l.svcCtx).Aggregate(groupID, l.svcCtx.Today())
	if err != nil {
		return err
	}

	_, err = NewRootMessageManager(l.ctx, l.svcCtx).EnsureTodayMessage(groupID, Render(agg, l.svcCtx.Location))
	return err
}

// Entry handles "Заход <amount>-<percentage>" sent as message messageID.
func (l *CommandLogic) Entry(groupID, messageID int64, text string) error {
	root, err := l.activeRoot(groupID)
	if err != nil {
		return err
	}

	expr := argument(text, 1)
	if expr == "" {
		return types.ErrNoExpression
	}
	res, err := calc.Parse(expr)
	if err != nil {
		return err
	}

	if _, err := NewStatisticsLedger(l.ctx, l.svcCtx).AddEntry(groupID, messageID, res.Value, res.Percentage); err != nil {
		return err
	}

	return NewLedgerSync(l.ctx, l.svcCtx).Refresh(groupID, root.Created())
}

// Cancel handles "Отмена" sent in reply to an entry message.
func (l *CommandLogic) Cancel(groupID, replyTo int64) error {
	if _, err := l.activeRoot(groupID); err != nil {
		return err
	}
	if replyTo == 0 {
		return types.ErrNoReply
	}

	deleted, err := NewStatisticsLedger(l.ctx, l.svcCtx).RemoveEntry(groupID, replyTo)
	if err != nil {
		return err
	}

	return NewLedgerSync(l.ctx, l.svcCtx).Refresh(groupID, deleted.Created())
}

// Calculation handles "Расчет <course> [messageId]", targeting the replied
// entry message or the explicit message id.
func (l *CommandLogic) Calculation(groupID, replyTo int64, text string) error {
	if _, err := l.activeRoot(groupID); err != nil {
		return err
	}

	target := replyTo
	if target == 0 {
		if id, err := strconv.ParseInt(argument(text, 2), 10, 64); err == nil {
			target = id
		}
	}
	if target == 0 {
		return types.ErrNoReply
	}

	course, err := calc.ParseCourse(argument(text, 1))
	if err != nil {
		return err
	}

	updated, err := NewStatisticsLedger(l.ctx, l.svcCtx).SetCourse(groupID, target, course)
	if err != nil {
		return err
	}

	return NewLedgerSync(l.ctx, l.svcCtx).Refresh(groupID, updated[0].Created())
}

// SettleChat handles "Чат рассчитан". The sweep spans every group; each
// affected (group, day) root message is refreshed on a best-effort basis.
func (l *CommandLogic) SettleChat() (int, error) {
	settled, err := NewStatisticsLedger(l.ctx, l.svcCtx).SettleAllPriced()
	if err != nil {
		return 0, err
	}

	days := affectedDays(settled, l.svcCtx.Location)
	fns := make([]func() error, 0, len(days))
	for _, day := range days {
		day := day
		fns = append(fns, func() error {
			if err := NewLedgerSync(l.ctx, l.svcCtx).Refresh(day.GroupID, day.Date); err != nil {
				l.Errorf("refresh %s after settlement: %v", day, err)
			}
			return nil
		})
	}
	if err := mr.Finish(fns...); err != nil {
		return len(settled), err
	}

	return len(settled), nil
}

// Statistics handles "Статистика": an all-time summary reply, no refresh.
func (l *CommandLogic) Statistics(groupID int64) (string, error) {
	agg, err := NewStatisticsLedger(l.ctx, l.svcCtx).Totals(groupID)
	if err != nil {
		return "", err
	}

	return RenderTotals(agg), nil
}

// activeRoot gates entry mutations on today's root message.
func (l *CommandLogic) activeRoot(groupID int64) (*model.Messages, error) {
	root, isToday, err := NewRootMessageManager(l.ctx, l.svcCtx).GetActive(groupID)
	switch {
	case isTypeNotFound(err):
		return nil, fmt.Errorf("%w: group %d has no root message", types.ErrStale, groupID)
	case err != nil:
		return nil, err
	case !isToday:
		return nil, fmt.Errorf("%w: group %d, message %d", types.ErrStale, groupID, root.MessageId)
	}

	return root, nil
}

// affectedDays lists the distinct (group, day) pairs of entries, in first-seen order.
func affectedDays(entries []*model.Statistics, loc *time.Location) []types.DayKey {
	seen := make(map[types.DayKey]struct{})
	var days []types.DayKey
	for _, e := range entries {
		key := types.DayKey{GroupID: e.GroupId, Date: types.StartOfDay(e.Created(), loc)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, key)
	}
	return days
}

func argument(text string, i int) string {
	fields := strings.Fields(text)
	if i >= len(fields) {
		return ""
	}
	return fields[i]
}
