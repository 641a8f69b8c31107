package handler

import (
	"strconv"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandStart
	CommandHelp
	CommandEntry
	CommandCancel
	CommandCalculation
	CommandSettleChat
	CommandStatistics
	CommandGroups
	CommandSend
	CommandSendAll
)

var commandNames = map[CommandKind]string{
	CommandUnknown:     "unknown",
	CommandStart:       "start",
	CommandHelp:        "help",
	CommandEntry:       "entry",
	CommandCancel:      "cancel",
	CommandCalculation: "calculation",
	CommandSettleChat:  "settle_chat",
	CommandStatistics:  "statistics",
	CommandGroups:      "groups",
	CommandSend:        "send",
	CommandSendAll:     "send_all",
}

func (k CommandKind) String() string {
	return commandNames[k]
}

// keywords are matched as message prefixes, in order.
var keywords = []struct {
	prefix string
	kind   CommandKind
}{
	{"Заход", CommandEntry},
	{"Отмена", CommandCancel},
	{"Расчет", CommandCalculation},
	{"Чат рассчитан", CommandSettleChat},
	{"Статистика", CommandStatistics},
}

// ParseCommand classifies a chat message.
func ParseCommand(msg *tgbotapi.Message) CommandKind {
	if msg == nil || msg.Text == "" {
		return CommandUnknown
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return CommandStart
		case "help":
			return CommandHelp
		case "groups":
			return CommandGroups
		case "send":
			return CommandSend
		case "sendall":
			return CommandSendAll
		default:
			return CommandUnknown
		}
	}

	for _, kw := range keywords {
		if strings.HasPrefix(msg.Text, kw.prefix) {
			return kw.kind
		}
	}
	return CommandUnknown
}

// sendArguments splits "/send <groupId> <text>" arguments. The text keeps
// its line breaks.
func sendArguments(args string) (int64, string, bool) {
	args = strings.TrimSpace(args)
	idx := strings.IndexFunc(args, unicode.IsSpace)
	if idx < 0 {
		return 0, "", false
	}

	groupID, err := strconv.ParseInt(args[:idx], 10, 64)
	if err != nil {
		return 0, "", false
	}
	text := strings.TrimSpace(args[idx:])
	return groupID, text, text != ""
}
