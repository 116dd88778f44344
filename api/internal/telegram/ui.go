package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

func makeConfirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	yes := tgbotapi.NewInlineKeyboardButtonData("Yes", callbackYes)
	no := tgbotapi.NewInlineKeyboardButtonData("No", callbackNo)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(yes, no))
}
