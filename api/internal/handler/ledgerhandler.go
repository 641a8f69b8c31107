package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/qx/ledger_robot/api/internal/logic"
	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/metric"
	"github.com/zeromicro/go-zero/core/threading"
)

const (
	replyGeneric       = "Что-то пошло не так!"
	replyParse         = "Неверное выражение, пример: Заход 100-10"
	replyNoExpression  = "Забыли написать выражение после двоеточия!"
	replyNoReply       = "Выберите сообщение!"
	replyStale         = "Cообщение устарело, на сегодня необходимо создать новое с командой /start"
	replyAlreadyExists = "Сообщение уже было отправлено на сегодня"
	replyAdminChat     = "Эту группу нельзя добавить в список!"
	replyNotSupergroup = "Необходимо сделать бота админом группы"
	replyGroupNotFound = "Группа не найдена"
	replySendUsage     = "Пример: /send -1001234567890 Текст сообщения"
	replySendAllUsage  = "Пример: /sendall Текст сообщения"
	replySent          = "Сообщение отправлено в группу <i>%d</i>"
	replyBroadcast     = "Сообщение отправлено в %d из %d групп"

	replyHelp = "📖 Команды бота:\n\n" +
		"/start - начать новый день и закрепить сообщение со статистикой\n" +
		"Заход 100-10 - добавить заход: сумма-процент\n" +
		"Отмена - ответом на заход, удалить его\n" +
		"Расчет 90 - ответом на заход, указать курс\n" +
		"Расчет 90 123 - указать курс заходу с id сообщения 123\n" +
		"Чат рассчитан - отметить выплаченными все заходы с курсом\n" +
		"Статистика - общая сумма и выплачено за всё время\n\n" +
		"В чате администраторов:\n" +
		"/groups - список групп\n" +
		"/send -100123 Текст - отправить сообщение в группу\n" +
		"/sendall Текст - отправить сообщение во все группы"
)

// callsPerCommand bounds a command to a few collaborator round trips.
const callsPerCommand = 4

var commandTotal = metric.NewCounterVec(&metric.CounterVecOpts{
	Namespace: "ledger_bot",
	Name:      "command_total",
	Help:      "chat commands by kind and result",
	Labels:    []string{"kind", "result"},
})

type LedgerHandler struct {
	svcCtx *svc.ServiceContext
	auth   Authorizer
}

func NewLedgerHandler(svcCtx *svc.ServiceContext, auth Authorizer) *LedgerHandler {
	return &LedgerHandler{
		svcCtx: svcCtx,
		auth:   auth,
	}
}

// HandleUpdate processes an update in its own goroutine, so commands
// interleave at every store or messenger call.
func (h *LedgerHandler) HandleUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message
	threading.GoSafe(func() {
		h.Handle(msg)
	})
}

// Handle runs a single message to completion.
func (h *LedgerHandler) Handle(msg *tgbotapi.Message) {
	kind := ParseCommand(msg)
	if kind == CommandUnknown {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), callsPerCommand*h.svcCtx.Config.Bot.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := h.dispatch(ctx, kind, msg)
	logger := logx.WithContext(ctx).WithDuration(time.Since(start))

	result := "ok"
	switch {
	case errors.Is(err, types.ErrForbidden):
		result = "forbidden"
		logger.Infof("%s ignored for user %d in %d", kind, userID(msg), msg.Chat.ID)
	case err != nil:
		result = "error"
		reply = replyFor(err)
		logger.Errorf("%s in %d: %v", kind, msg.Chat.ID, err)
	default:
		logger.Infof("%s in %d done", kind, msg.Chat.ID)
	}
	commandTotal.Inc(kind.String(), result)

	if reply == "" {
		return
	}
	if err := h.svcCtx.Messenger.Reply(ctx, msg.Chat.ID, int64(msg.MessageID), reply); err != nil {
		logger.Errorf("reply to %d: %v", msg.Chat.ID, err)
	}
}

func (h *LedgerHandler) dispatch(ctx context.Context, kind CommandKind, msg *tgbotapi.Message) (string, error) {
	l := logic.NewCommandLogic(ctx, h.svcCtx)
	chatID := msg.Chat.ID

	switch kind {
	case CommandHelp:
		return replyHelp, nil
	case CommandStatistics:
		return l.Statistics(chatID)
	case CommandStart:
		if !h.auth.CanOnboard(chatID) {
			return replyAdminChat, nil
		}
	}

	if !h.auth.IsAllowedUser(userID(msg)) {
		return "", types.ErrForbidden
	}

	switch kind {
	case CommandStart:
		if !msg.Chat.IsSuperGroup() {
			return replyNotSupergroup, nil
		}
		return "", l.Start(chatID, msg.Chat.Title)
	case CommandEntry:
		return "", l.Entry(chatID, int64(msg.MessageID), msg.Text)
	case CommandCancel:
		return "", l.Cancel(chatID, replyToID(msg))
	case CommandCalculation:
		return "", l.Calculation(chatID, replyToID(msg), msg.Text)
	case CommandSettleChat:
		_, err := l.SettleChat()
		return "", err
	case CommandGroups, CommandSend, CommandSendAll:
		return h.dispatchAdmin(ctx, kind, msg)
	default:
		return "", nil
	}
}

// dispatchAdmin runs the commands that only work in the administrators' chat.
func (h *LedgerHandler) dispatchAdmin(ctx context.Context, kind CommandKind, msg *tgbotapi.Message) (string, error) {
	if !h.auth.IsAdminChat(msg.Chat.ID) {
		return "", types.ErrForbidden
	}

	l := logic.NewAdminLogic(ctx, h.svcCtx)
	switch kind {
	case CommandGroups:
		return l.Groups()
	case CommandSend:
		groupID, text, ok := sendArguments(msg.CommandArguments())
		if !ok {
			return replySendUsage, nil
		}
		err := l.SendToGroup(groupID, text)
		switch {
		case errors.Is(err, types.ErrNotFound):
			return replyGroupNotFound, nil
		case err != nil:
			return "", err
		}
		return fmt.Sprintf(replySent, groupID), nil
	case CommandSendAll:
		text := strings.TrimSpace(msg.CommandArguments())
		if text == "" {
			return replySendAllUsage, nil
		}
		sent, total, err := l.Broadcast(text)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(replyBroadcast, sent, total), nil
	default:
		return "", nil
	}
}

func replyFor(err error) string {
	switch {
	case errors.Is(err, types.ErrParse):
		return replyParse
	case errors.Is(err, types.ErrNoExpression):
		return replyNoExpression
	case errors.Is(err, types.ErrNoReply):
		return replyNoReply
	case errors.Is(err, types.ErrStale):
		return replyStale
	case errors.Is(err, types.ErrAlreadyExists):
		return replyAlreadyExists
	default:
		return replyGeneric
	}
}

func userID(msg *tgbotapi.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}

func replyToID(msg *tgbotapi.Message) int64 {
	if msg.ReplyToMessage == nil {
		return 0
	}
	return int64(msg.ReplyToMessage.MessageID)
}
