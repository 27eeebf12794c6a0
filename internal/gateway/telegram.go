package gateway

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/agendabot/internal/dialog"
	"github.com/rahul/agendabot/internal/observability"
	"github.com/rahul/agendabot/internal/render"
)

// telegramLimit is the maximum message length in characters.
const telegramLimit = 4096

type TelegramGateway struct {
	Bot    *tgbotapi.BotAPI
	Engine Dispatcher
	Logger *observability.Logger

	lanes *lanes
}

func NewTelegramGateway(token string, engine Dispatcher, logger *observability.Logger) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("[gateway] telegram authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:    bot,
		Engine: engine,
		Logger: logger,
		lanes:  newLanes(),
	}, nil
}

func (tg *TelegramGateway) Name() string { return "telegram" }

func (tg *TelegramGateway) Start(ctx context.Context) error {
	if err := tg.registerCommands(); err != nil {
		log.Printf("[gateway] telegram command menu not registered: %v", err)
		tg.Logger.LogGateway(tg.Name(), "set_commands", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)
	tg.Logger.LogGateway(tg.Name(), "start", nil)
	defer tg.lanes.close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			tg.handle(ctx, update)
		}
	}
}

func (tg *TelegramGateway) handle(ctx context.Context, update tgbotapi.Update) {
	var (
		chatID int64
		ev     dialog.Event
	)
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if _, err := tg.Bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Printf("[gateway] callback ack failed: %v", err)
		}
		if cq.Message == nil {
			return
		}
		chatID = cq.Message.Chat.ID
		ev = dialog.Select(cq.Data)
	case update.Message != nil:
		msg := update.Message
		chatID = msg.Chat.ID
		if msg.IsCommand() {
			ev = dialog.Command(msg.Command(), msg.CommandArguments())
		} else {
			if msg.Text == "" {
				return
			}
			ev = dialog.Text(msg.Text)
		}
		if msg.From != nil {
			log.Printf("[%s] %s", msg.From.UserName, msg.Text)
		}
	default:
		return
	}

	key := strconv.FormatInt(chatID, 10)
	queued := tg.lanes.run(key, func() {
		for _, r := range tg.Engine.Dispatch(ctx, key, ev) {
			if err := tg.Send(key, r); err != nil {
				log.Printf("[gateway] telegram send to %s failed: %v", key, err)
				tg.Logger.LogGateway(tg.Name(), "send", err)
			}
		}
	})
	if !queued {
		log.Printf("[gateway] telegram is stopping, dropped event for %s", key)
	}
}

func (tg *TelegramGateway) Send(chatID string, r dialog.Reply) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	chunks := splitMessage(r.Text, telegramLimit)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(id, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		if i == len(chunks)-1 && len(r.Buttons) > 0 {
			msg.ReplyMarkup = inlineKeyboard(r.Buttons)
		}
		if _, err := tg.Bot.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}

func (tg *TelegramGateway) registerCommands() error {
	var cmds []tgbotapi.BotCommand
	for _, c := range tg.Engine.Commands() {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	_, err := tg.Bot.Request(tgbotapi.NewSetMyCommands(cmds...))
	return err
}

func inlineKeyboard(kb render.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
