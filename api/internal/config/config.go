package config

import (
	"time"

	"github.com/zeromicro/go-zero/core/service"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

type Config struct {
	service.ServiceConf

	Bot struct {
		Token   string
		Debug   bool          `json:",optional"`
		Timeout time.Duration `json:",default=10s"`
	}

	// AllowedChatId is the administrators' chat, it can never be onboarded as a ledger group.
	AllowedChatId int64   `json:",optional"`
	AllowedUsers  []int64 `json:",optional"`

	// Timezone decides where a calendar day starts and ends.
	Timezone   string `json:",optional"`
	DataSource string `json:",default=data/ledger.db"`

	// Redis enables the cross-process refresh lock when Host is set.
	Redis struct {
		Host string `json:",optional"`
		Type string `json:",default=node,options=node|cluster"`
		Pass string `json:",optional"`
		Tls  bool   `json:",optional"`
	}
}

func (c Config) RedisConf() redis.RedisConf {
	return redis.RedisConf{
		Host:     c.Redis.Host,
		Type:     c.Redis.Type,
		Pass:     c.Redis.Pass,
		Tls:      c.Redis.Tls,
		NonBlock: true,
	}
}

// Location resolves Timezone, falling back to the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) IsAllowedUser(userID int64) bool {
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
