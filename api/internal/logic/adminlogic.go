package logic

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

// AdminLogic serves the commands of the administrators' chat.
type AdminLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdminLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdminLogic {
	return &AdminLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Groups lists every onboarded group.
func (l *AdminLogic) Groups() (string, error) {
	groups, err := l.svcCtx.GroupsModel.FindAll(l.ctx)
	if err != nil {
		return "", fmt.Errorf("%w: list groups: %v", types.ErrPersistence, err)
	}

	return RenderGroups(groups), nil
}

// SendToGroup posts text to one onboarded group.
func (l *AdminLogic) SendToGroup(groupID int64, text string) error {
	_, err := l.svcCtx.GroupsModel.FindOne(l.ctx, groupID)
	switch {
	case isNotFound(err):
		return fmt.Errorf("%w: group %d", types.ErrNotFound, groupID)
	case err != nil:
		return fmt.Errorf("%w: find group %d: %v", types.ErrPersistence, groupID, err)
	}

	if _, err := l.svcCtx.Messenger.Send(l.ctx, groupID, tgbotapi.EscapeText(tgbotapi.ModeHTML, text)); err != nil {
		return err
	}

	l.Infow("message sent to group", logx.Field("group", groupID))
	return nil
}

// Broadcast posts text to every onboarded group. A group that cannot be
// reached is logged and skipped.
func (l *AdminLogic) Broadcast(text string) (sent, total int, err error) {
	groups, err := l.svcCtx.GroupsModel.FindAll(l.ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: list groups: %v", types.ErrPersistence, err)
	}

	body := tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
	for _, group := range groups {
		if _, err := l.svcCtx.Messenger.Send(l.ctx, group.GroupId, body); err != nil {
			l.Errorw("broadcast to group",
				logx.Field("group", group.GroupId),
				logx.Field("error", err.Error()))
			continue
		}
		sent++
	}

	l.Infow("broadcast done", logx.Field("sent", sent), logx.Field("total", len(groups)))
	return sent, len(groups), nil
}
