package botapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	tginfra "github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
	exportsvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/export"
	modsvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/moderation"
	relaysvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/relay"
)

const greeting = "👋 Welcome to FerPs Anonymous!\n\n" +
	"Send me a message and I will post it anonymously to the channel."

func (a *App) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if a.bot == nil {
		return nil
	}

	switch {
	case update.CallbackQuery != nil:
		return a.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return a.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (a *App) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil || cb.From == nil {
		return nil
	}
	return a.moderation.HandleCallback(ctx, modsvc.Callback{
		CallbackID: cb.ID,
		ChatID:     cb.Message.Chat.ID,
		MessageID:  cb.Message.MessageID,
		UserID:     cb.From.ID,
		Data:       cb.Data,
	})
}

func (a *App) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}

	if msg.IsCommand() {
		return a.handleCommand(ctx, msg)
	}

	if !msg.Chat.IsPrivate() {
		return nil
	}

	return a.relay.Handle(ctx, relaysvc.Submission{
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		UserID:     msg.From.ID,
		Username:   msg.From.UserName,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
		Classified: tginfra.Classify(msg),
	})
}

func (a *App) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch strings.ToLower(msg.Command()) {
	case "start":
		return a.bot.SendText(ctx, msg.Chat.ID, greeting)
	case "setgroup":
		return a.cmdSetGroup(ctx, msg)
	case "setchannel":
		return a.cmdSetChannel(ctx, msg)
	case "stats":
		return a.cmdStats(ctx, msg)
	case "user":
		return a.cmdUser(ctx, msg)
	case "info":
		return a.cmdInfo(ctx, msg)
	case "unban":
		return a.cmdUnban(ctx, msg)
	default:
		return nil
	}
}

func (a *App) cmdSetGroup(ctx context.Context, msg *tgbotapi.Message) error {
	if !isGroupChat(msg.Chat) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Run this inside the admin group.")
	}
	if !a.invokerIsChatAdmin(ctx, msg) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Only group admins can set the group.")
	}
	if err := a.settingRepo.Set(ctx, pgrepo.KeyGroupChatID, strconv.FormatInt(msg.Chat.ID, 10)); err != nil {
		return fmt.Errorf("store group chat id: %w", err)
	}
	return a.bot.SendText(ctx, msg.Chat.ID, "✅ This chat is now registered as the admin group.")
}

func (a *App) cmdSetChannel(ctx context.Context, msg *tgbotapi.Message) error {
	if !isGroupChat(msg.Chat) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Run this inside the admin group.")
	}
	if !a.invokerIsChatAdmin(ctx, msg) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Only group admins can set the channel.")
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return a.bot.SendText(ctx, msg.Chat.ID, "Usage: /setchannel @ChannelUsername")
	}
	channel := args[0]
	if !strings.HasPrefix(channel, "@") {
		return a.bot.SendText(ctx, msg.Chat.ID, "Please provide a public @channel username.")
	}
	if err := a.settingRepo.Set(ctx, pgrepo.KeyChannelUsername, channel); err != nil {
		return fmt.Errorf("store channel username: %w", err)
	}
	return a.bot.SendText(ctx, msg.Chat.ID, fmt.Sprintf("✅ Channel set to %s", channel))
}

func (a *App) cmdStats(ctx context.Context, msg *tgbotapi.Message) error {
	total, err := a.submissionRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count submissions: %w", err)
	}
	banned, err := a.banRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count bans: %w", err)
	}
	return a.bot.SendText(ctx, msg.Chat.ID,
		fmt.Sprintf("Total moderated posts: %d\nBanned users: %d", total, banned))
}

func (a *App) cmdUser(ctx context.Context, msg *tgbotapi.Message) error {
	if !a.access.IsAdmin(ctx, msg.From.ID) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Admins only.")
	}
	return a.roster.List(ctx, msg.Chat.ID)
}

func (a *App) cmdInfo(ctx context.Context, msg *tgbotapi.Message) error {
	if !a.access.IsAdmin(ctx, msg.From.ID) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Admins only.")
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return a.bot.SendText(ctx, msg.Chat.ID, "Usage: /info @username or /info 123456789")
	}

	// The spreadsheet goes to the requester's private chat even when the
	// command was issued in the group.
	err := a.export.Export(ctx, msg.From.ID, args[0])
	if errors.Is(err, exportsvc.ErrNoSubmissions) {
		return a.bot.SendText(ctx, msg.Chat.ID, "No submissions found for that user.")
	}
	return err
}

func (a *App) cmdUnban(ctx context.Context, msg *tgbotapi.Message) error {
	if !a.access.IsAdmin(ctx, msg.From.ID) {
		return a.bot.SendText(ctx, msg.Chat.ID, "Admins only.")
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return a.bot.SendText(ctx, msg.Chat.ID, "Usage: /unban 123456789")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return a.bot.SendText(ctx, msg.Chat.ID, "Usage: /unban 123456789")
	}
	if err := a.banRepo.Unban(ctx, userID); err != nil {
		return fmt.Errorf("unban user %d: %w", userID, err)
	}
	return a.bot.SendText(ctx, msg.Chat.ID, fmt.Sprintf("✅ User %d unbanned.", userID))
}

func (a *App) invokerIsChatAdmin(ctx context.Context, msg *tgbotapi.Message) bool {
	if a.access.IsStaticAdmin(msg.From.ID) {
		return true
	}
	return a.access.IsGroupAdmin(ctx, msg.Chat.ID, msg.From.ID)
}

func isGroupChat(chat *tgbotapi.Chat) bool {
	return chat.IsGroup() || chat.IsSuperGroup()
}
