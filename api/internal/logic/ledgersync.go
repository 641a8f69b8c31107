package logic

import (
	"context"
	"time"

	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/metric"
)

var refreshTotal = metric.NewCounterVec(&metric.CounterVecOpts{
	Namespace: "ledger_bot",
	Name:      "refresh_total",
	Help:      "root message refreshes by result",
	Labels:    []string{"result"},
})

const (
	refreshEdited    = "edited"
	refreshUnchanged = "unchanged"
	refreshFailed    = "failed"
)

// LedgerSync pushes the current ledger state of a day into its root message.
// It is the only path that edits root messages.
type LedgerSync struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLedgerSync(ctx context.Context, svcCtx *svc.ServiceContext) *LedgerSync {
	return &LedgerSync{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Refresh re-renders the root message of groupID for date's day. Refreshes of
// the same day run one at a time. A failed edit is logged and swallowed: the
// ledger is already committed and stays the source of truth.
func (s *LedgerSync) Refresh(groupID int64, date time.Time) error {
	key := types.DayKey{GroupID: groupID, Date: types.StartOfDay(date, s.svcCtx.Location)}

	return s.svcCtx.Serializer.Serialize(s.ctx, "refresh:"+key.String(), func() error {
		root, err := NewRootMessageManager(s.ctx, s.svcCtx).GetForDate(groupID, date)
		if err != nil {
			return err
		}

		agg, err := NewStatisticsLedger(s.ctx, s.svcCtx).Aggregate(groupID, date)
		if err != nil {
			return err
		}

		text := Render(agg, s.svcCtx.Location)
		if text == root.Text {
			refreshTotal.Inc(refreshUnchanged)
			return nil
		}

		if err := s.svcCtx.Messenger.Edit(s.ctx, groupID, root.MessageId, text); err != nil {
			refreshTotal.Inc(refreshFailed)
			s.Errorw("edit root message",
				logx.Field("group", groupID),
				logx.Field("message", root.MessageId),
				logx.Field("error", err.Error()))
			return nil
		}
		refreshTotal.Inc(refreshEdited)

		if err := s.svcCtx.MessagesModel.UpdateText(s.ctx, root.Id, text); err != nil {
			s.Errorf("store text of root message %d: %v", root.MessageId, err)
		}
		return nil
	})
}
