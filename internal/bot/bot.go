package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/return-analyzer/internal/analyzer"
	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/models"
	"github.com/xaenox/return-analyzer/internal/session"
	"go.uber.org/zap"
)

const (
	selectPrefix = "select:"
	backData     = "back"
	historySize  = 5
)

// API is the subset of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api     API
	service *analyzer.Service
	logger  *zap.Logger
}

func New(token string, service *analyzer.Service, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))
	return NewWithAPI(api, service, logger), nil
}

func NewWithAPI(api API, service *analyzer.Service, logger *zap.Logger) *Bot {
	return &Bot{
		api:     api,
		service: service,
		logger:  logger,
	}
}

// Start polls for updates until ctx is canceled. Each update is handled in
// its own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.CallbackQuery != nil:
				go b.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	// Handle commands
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	// Get content from message
	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	sess, err := b.service.Session(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to load session", zap.Error(err), zap.Int64("user_id", userID))
		b.sendErrorMessage(chatID, "Sorry, something went wrong. Please try again.")
		return
	}
	if sess.Page != models.AnalysisPage {
		b.sendMessage(chatID, "Select a product to start a return.")
		b.showShowcase(chatID)
		return
	}

	analysis, err := b.service.AnalyzeSelected(ctx, userID, content)
	switch {
	case errors.Is(err, analyzer.ErrEmptyReason):
		b.sendWarning(chatID, "Please enter a return reason")
	case errors.Is(err, session.ErrNoSelection):
		b.sendMessage(chatID, "Select a product to start a return.")
		b.showShowcase(chatID)
	case err != nil:
		b.logger.Error("Failed to analyze return reason",
			zap.Error(err),
			zap.Int64("user_id", userID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't analyze your reason. Please try again.")
	default:
		b.sendAnalysis(chatID, message.MessageID, analysis)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "products":
		b.showShowcase(message.Chat.ID)
	case "help":
		b.handleHelp(message)
	case "back":
		b.goBack(ctx, message.From.ID, message.Chat.ID)
	case "history":
		b.handleHistory(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	chatID := query.From.ID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}

	switch {
	case query.Data == backData:
		b.goBack(ctx, query.From.ID, chatID)
	case strings.HasPrefix(query.Data, selectPrefix):
		idx, err := strconv.Atoi(strings.TrimPrefix(query.Data, selectPrefix))
		if err != nil {
			b.logger.Warn("Malformed callback data", zap.String("data", query.Data))
			return
		}
		b.selectProduct(ctx, query.From.ID, chatID, idx)
	default:
		b.logger.Warn("Unknown callback data", zap.String("data", query.Data))
	}
}

func (b *Bot) selectProduct(ctx context.Context, userID, chatID int64, idx int) {
	product, err := b.service.SelectProduct(ctx, userID, idx)
	if errors.Is(err, catalog.ErrUnknownProduct) {
		b.sendMessage(chatID, "That product is no longer available.")
		b.showShowcase(chatID)
		return
	}
	if err != nil {
		b.logger.Error("Failed to select product",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.Int("product", idx))
		b.sendErrorMessage(chatID, "Sorry, something went wrong. Please try again.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, renderAnalysisPrompt(product))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = backKeyboard()
	b.send(msg, chatID)
}

func (b *Bot) goBack(ctx context.Context, userID, chatID int64) {
	if err := b.service.Back(ctx, userID); err != nil {
		b.logger.Error("Failed to go back",
			zap.Error(err),
			zap.Int64("user_id", userID))
		b.sendErrorMessage(chatID, "Sorry, something went wrong. Please try again.")
		return
	}
	b.showShowcase(chatID)
}

func (b *Bot) showShowcase(chatID int64) {
	b.sendMessage(chatID, "📦 Our Product Collection")
	for i, p := range b.service.Products() {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(p.ImageURL))
		photo.Caption = renderProductCaption(p)
		photo.ParseMode = tgbotapi.ModeMarkdownV2
		photo.ReplyMarkup = selectKeyboard(i)
		b.send(photo, chatID)
	}
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Show the product collection
/products - Show the product collection
/back - Back to products
/history - Show your recent returns
/help - Show this help message

Pick a product with "Select for Return", then describe why you're returning it.
I'll predict the return category and recommend a resolution.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	analyses, err := b.service.History(ctx, message.From.ID, historySize)
	if err != nil {
		b.logger.Error("Failed to get user analyses",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your return history.")
		return
	}

	if len(analyses) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any returns yet.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, renderHistory(analyses))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	b.send(msg, message.Chat.ID)
}

func (b *Bot) sendAnalysis(chatID int64, replyToID int, analysis *models.Analysis) {
	msg := tgbotapi.NewMessage(chatID, renderAnalysis(analysis))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID
	msg.ReplyMarkup = backKeyboard()
	b.send(msg, chatID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text), chatID)
}

func (b *Bot) sendWarning(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, "⚠️ "+text), chatID)
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, "❌ "+text), chatID)
}

func (b *Bot) send(c tgbotapi.Chattable, chatID int64) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func selectKeyboard(idx int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Select for Return", selectPrefix+strconv.Itoa(idx)),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("← Back to Products", backData),
		),
	)
}
