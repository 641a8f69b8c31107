package logic

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/types"
)

const dateLayout = "02.01.2006"

// Render formats a day aggregate as the root message body. Identical input
// yields identical text, so an unchanged ledger never needs an edit.
func Render(agg *types.Aggregate, loc *time.Location) string {
	var stat strings.Builder
	for _, item := range agg.LineItems {
		stat.WriteString(fmt.Sprintf("\n💰%s-%s%% = %s",
			types.FormatNumber(item.Sum),
			types.FormatNumber(item.Percentage),
			types.FormatNumber(item.CalcSum)))
	}

	return fmt.Sprintf("Начало работы: %s\n\n"+
		"📟 <b>Айди чата:</b> <i>%d</i>\n\n\n"+
		"📈 <b>Статистика:</b>\n%s\n\n"+
		"📦 <b>Общая сумма:</b> %s \n"+
		"📤 <b>К выплате:</b> %s\n"+
		"💸 <b>Выплачено:</b> <i>%s $</i>",
		agg.Date.In(loc).Format(dateLayout),
		agg.GroupID,
		stat.String(),
		types.FormatNumber(agg.FullSum),
		types.FormatNumber(agg.ToPaySum),
		types.FormatNumber(agg.PaidSum))
}

// RenderTotals formats the all-time summary reply of a group.
func RenderTotals(agg *types.Aggregate) string {
	return fmt.Sprintf("📦 <b>Общая сумма:</b> %s\n💸 <b>Выплачено:</b> <i>%s $</i>",
		types.FormatNumber(agg.FullSum),
		types.FormatNumber(agg.PaidSum))
}

// RenderGroups formats the onboarded groups as "id title" rows.
func RenderGroups(groups []*model.Groups) string {
	var list strings.Builder
	list.WriteString("📋 <b>Группы:</b>\n")
	if len(groups) == 0 {
		list.WriteString("\nСписок пуст")
	}
	for _, g := range groups {
		list.WriteString(fmt.Sprintf("\n<i>%d</i> %s", g.GroupId, tgbotapi.EscapeText(tgbotapi.ModeHTML, g.Title)))
	}
	return list.String()
}
