package main

import (
	"flag"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/qx/ledger_robot/api/internal/config"
	"github.com/qx/ledger_robot/api/internal/handler"
	"github.com/qx/ledger_robot/api/internal/svc"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/proc"
)

var configFile = flag.String("f", "etc/ledger.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c, conf.UseEnv())
	c.MustSetUp()
	defer logx.Close()

	ctx := svc.NewServiceContext(c)
	h := handler.NewLedgerHandler(ctx, handler.NewAuthorizer(c))

	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Начать новый день",
		},
		{
			Command:     "help",
			Description: "Список команд",
		},
	}
	if _, err := ctx.Bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		logx.Errorf("set bot commands: %v", err)
	}

	logx.Infof("bot started: @%s", ctx.Bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = svc.PollTimeout
	updates := ctx.Bot.GetUpdatesChan(u)
	proc.AddShutdownListener(ctx.Bot.StopReceivingUpdates)

	for update := range updates {
		h.HandleUpdate(update)
	}
}
