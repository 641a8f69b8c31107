package svc

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/qx/ledger_robot/api/internal/config"
	"github.com/qx/ledger_robot/api/internal/lock"
	"github.com/qx/ledger_robot/api/internal/messenger"
	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// PollTimeout is the long-poll window of getUpdates, in seconds.
const PollTimeout = 60

type ServiceContext struct {
	Config   config.Config
	Location *time.Location
	Now      func() time.Time

	Bot        *tgbotapi.BotAPI
	Messenger  messenger.Messenger
	Serializer lock.Serializer

	GroupsModel     model.GroupsModel
	MessagesModel   model.MessagesModel
	StatisticsModel model.StatisticsModel
}

func NewServiceContext(c config.Config) *ServiceContext {
	loc, err := c.Location()
	if err != nil {
		panic(err)
	}

	tg, err := messenger.NewTelegram(c.Bot.Token, c.Bot.Debug, c.Bot.Timeout, PollTimeout*time.Second)
	if err != nil {
		panic(err)
	}

	serializer := lock.NewLocal()
	if c.Redis.Host != "" {
		serializer = lock.NewRedis(redis.MustNewRedis(c.RedisConf()), 2*c.Bot.Timeout)
	}

	conn := model.MustOpen(c.DataSource)

	return &ServiceContext{
		Config:          c,
		Location:        loc,
		Now:             time.Now,
		Bot:             tg.Bot(),
		Messenger:       tg,
		Serializer:      serializer,
		GroupsModel:     model.NewGroupsModel(conn),
		MessagesModel:   model.NewMessagesModel(conn),
		StatisticsModel: model.NewStatisticsModel(conn),
	}
}

func (s *ServiceContext) Today() time.Time {
	return types.StartOfDay(s.Now(), s.Location)
}
