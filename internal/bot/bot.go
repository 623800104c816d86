// Package bot provides the Telegram front-end: command handlers, middleware
// and the notifier used by the review reminder.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"word-garden/internal/config"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/service"
)

// AccountService is what the account and admin commands need.
type AccountService interface {
	LinkTelegram(ctx context.Context, telegramID int64, nickname string) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByNickname(ctx context.Context, nickname string) (*model.User, error)
	AdjustPoints(ctx context.Context, userID, points int64, op service.PointsOperation) (int64, error)
}

// LearningService is what /due needs.
type LearningService interface {
	ReviewDue(ctx context.Context, userID int64) ([]*model.LearnedWord, error)
}

// GoalService is what /start and /goal need.
type GoalService interface {
	GetOrCreateCurrent(ctx context.Context, userID int64) (*model.WeeklyGoal, error)
	Recompute(ctx context.Context, userID int64) (*model.WeeklyGoal, error)
}

// AchievementService is what /achievements needs.
type AchievementService interface {
	CheckAndUnlock(ctx context.Context, userID int64) (*service.UnlockResult, error)
	Unlocked(ctx context.Context, userID int64) ([]*model.UserAchievement, error)
}

// ShopService is what /shop and /bag need.
type ShopService interface {
	Items(ctx context.Context, itemType model.ItemType) ([]*model.CatalogItem, error)
	Purchase(ctx context.Context, userID, itemID int64, itemType model.ItemType) (*service.PurchaseResult, error)
	Inventory(ctx context.Context, userID int64) ([]*model.InventoryItem, error)
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config       *config.Config
	Accounts     AccountService
	Learning     LearningService
	Goals        GoalService
	Achievements AchievementService
	Shop         ShopService
}

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	commands *commands
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, errors.New("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Bot handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
		commands: &commands{
			accounts:     deps.Accounts,
			learning:     deps.Learning,
			goals:        deps.Goals,
			achievements: deps.Achievements,
			shop:         deps.Shop,
			purchases:    lock.NewUserLock(0),
		},
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.commands.handleStart)
	b.bot.Handle("/balance", b.commands.handleBalance)
	b.bot.Handle("/due", b.commands.handleDue)
	b.bot.Handle("/goal", b.commands.handleGoal)
	b.bot.Handle("/achievements", b.commands.handleAchievements)
	b.bot.Handle("/shop", b.commands.handleShop)
	b.bot.Handle("/bag", b.commands.handleBag)
	b.bot.Handle(tele.OnCallback, b.handleCallback)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_add", b.commands.handleAdminAdd)
	adminGroup.Handle("/admin_sub", b.commands.handleAdminSub)
}

// handleCallback routes inline button presses.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// telebot prefixes unique button data with \f
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, "shop_") {
		return b.commands.handleShopCallback(c, data)
	}
	return c.Respond()
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// Notify sends a plain message to a Telegram user.
func (b *Bot) Notify(_ context.Context, telegramID int64, text string) error {
	if _, err := b.bot.Send(tele.ChatID(telegramID), text); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", telegramID, err)
	}
	return nil
}
