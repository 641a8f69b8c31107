package handler

import "github.com/qx/ledger_robot/api/internal/config"

// Authorizer decides who may drive the ledger and which chats may host one.
type Authorizer interface {
	IsAllowedUser(userID int64) bool
	CanOnboard(chatID int64) bool
	IsAdminChat(chatID int64) bool
}

type configAuthorizer struct {
	c config.Config
}

func NewAuthorizer(c config.Config) Authorizer {
	return configAuthorizer{c: c}
}

func (a configAuthorizer) IsAllowedUser(userID int64) bool {
	return a.c.IsAllowedUser(userID)
}

// CanOnboard refuses the administrators' chat.
func (a configAuthorizer) CanOnboard(chatID int64) bool {
	return !a.IsAdminChat(chatID)
}

func (a configAuthorizer) IsAdminChat(chatID int64) bool {
	return a.c.AllowedChatId != 0 && chatID == a.c.AllowedChatId
}
