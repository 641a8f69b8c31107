package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

// RootMessageManager keeps at most one root message per group and calendar day.
// A root message is active on the day it was created and stale afterwards.
type RootMessageManager struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRootMessageManager(ctx context.Context, svcCtx *svc.ServiceContext) *RootMessageManager {
	return &RootMessageManager{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// EnsureTodayMessage sends, pins and records today's root message of a group,
// or fails with types.ErrAlreadyExists.
func (m *RootMessageManager) EnsureTodayMessage(groupID int64, text string) (*model.Messages, error) {
	today := m.svcCtx.Today()
	key := "root:" + types.DayKey{GroupID: groupID, Date: today}.String()

	var created *model.Messages
	err := m.svcCtx.Serializer.Serialize(m.ctx, key, func() error {
		_, err := m.GetForDate(groupID, today)
		switch {
		case err == nil:
			return fmt.Errorf("%w: root message of %d for %s", types.ErrAlreadyExists, groupID, today.Format(time.DateOnly))
		case !isTypeNotFound(err):
			return err
		}

		messageID, err := m.svcCtx.Messenger.Send(m.ctx, groupID, text)
		if err != nil {
			return err
		}
		if err := m.svcCtx.Messenger.Pin(m.ctx, groupID, messageID); err != nil {
			m.Errorf("pin root message %d in %d: %v", messageID, groupID, err)
		}

		msg := &model.Messages{
			GroupId:   groupID,
			MessageId: messageID,
			Text:      text,
			CreatedAt: m.svcCtx.Now().UnixMilli(),
		}
		if err := m.svcCtx.MessagesModel.Insert(m.ctx, msg); err != nil {
			m.Errorw("root message sent but not recorded",
				logx.Field("group", groupID),
				logx.Field("message", messageID),
				logx.Field("error", err.Error()))
			if err := m.svcCtx.Messenger.Unpin(m.ctx, groupID, messageID); err != nil {
				m.Errorf("unpin unrecorded root message %d in %d: %v", messageID, groupID, err)
			}
			return fmt.Errorf("%w: insert root message %d: %v", types.ErrPersistence, messageID, err)
		}

		created = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.Infow("root message created",
		logx.Field("group", groupID),
		logx.Field("message", created.MessageId))
	return created, nil
}

// GetActive returns the newest root message of a group and whether it
// belongs to today.
func (m *RootMessageManager) GetActive(groupID int64) (*model.Messages, bool, error) {
	msg, err := m.svcCtx.MessagesModel.FindLatest(m.ctx, groupID)
	if err != nil {
		return nil, false, m.wrap(err, groupID)
	}

	return msg, types.IsSameDay(msg.Created(), m.svcCtx.Now(), m.svcCtx.Location), nil
}

// GetForDate returns the root message owning date's calendar day.
func (m *RootMessageManager) GetForDate(groupID int64, date time.Time) (*model.Messages, error) {
	from, to := types.DayBounds(date, m.svcCtx.Location)
	msg, err := m.svcCtx.MessagesModel.FindCreatedBetween(m.ctx, groupID, from, to)
	if err != nil {
		return nil, m.wrap(err, groupID)
	}

	return msg, nil
}

func (m *RootMessageManager) wrap(err error, groupID int64) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: root message of %d", types.ErrNotFound, groupID)
	}
	return fmt.Errorf("%w: find root message of %d: %v", types.ErrPersistence, groupID, err)
}
