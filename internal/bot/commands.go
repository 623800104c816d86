package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"word-garden/internal/apperr"
	"word-garden/internal/model"
	"word-garden/internal/pkg/lock"
	"word-garden/internal/service"
)

// dueListLimit caps how many due words /due prints.
const dueListLimit = 10

const replyNotLinked = "❓ 还没有绑定账号，请发送 /start <昵称>"

type commands struct {
	accounts     AccountService
	learning     LearningService
	goals        GoalService
	achievements AchievementService
	shop         ShopService

	// purchases drops repeated taps on a buy button while one is in flight.
	purchases *lock.UserLock
}

// linkedUser resolves the sender's account. A nil user with a nil error
// means a reply has already been sent.
func (h *commands) linkedUser(ctx context.Context, c tele.Context) (*model.User, error) {
	sender := c.Sender()
	if sender == nil {
		return nil, nil
	}
	user, err := h.accounts.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, c.Reply(replyNotLinked)
		}
		log.Error().Err(err).Int64("telegram_id", sender.ID).Msg("Failed to resolve telegram user")
		return nil, c.Reply("❌ 查询失败，请稍后重试")
	}
	return user, nil
}

// handleStart links the chat to a nickname: /start <nickname>.
func (h *commands) handleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	nickname := strings.TrimSpace(c.Message().Payload)
	if nickname == "" {
		user, err := h.accounts.GetByTelegramID(ctx, sender.ID)
		if err == nil {
			return c.Reply(fmt.Sprintf("👋 欢迎回来 %s！\n\n当前积分: %d\n\n%s", user.Nickname, user.Points, helpText))
		}
		return c.Reply("用法: /start <昵称>\n\n" + helpText)
	}

	user, err := h.accounts.LinkTelegram(ctx, sender.ID, nickname)
	if err != nil {
		return c.Reply(replyError(err, "绑定失败"))
	}

	log.Info().
		Int64("telegram_id", sender.ID).
		Int64("user_id", user.ID).
		Msg("Telegram account linked")

	goal, err := h.goals.GetOrCreateCurrent(ctx, user.ID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to open weekly goal")
	}
	return c.Reply(formatLinked(user, goal))
}

// formatLinked builds the /start reply. goal may be nil.
func formatLinked(user *model.User, goal *model.WeeklyGoal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌱 已绑定账号 %s\n\n当前积分: %d\n", user.Nickname, user.Points)
	if goal != nil {
		fmt.Fprintf(&b, "本周目标: %d/%d 个单词\n", goal.LearnedWords, goal.TargetWords)
	}
	b.WriteString("\n")
	b.WriteString(helpText)
	return b.String()
}

const helpText = "可用命令:\n" +
	"/balance - 查看积分\n" +
	"/due - 待复习单词\n" +
	"/goal - 本周学习目标\n" +
	"/achievements - 检查成就\n" +
	"/shop - 花园商店\n" +
	"/bag - 我的背包"

func (h *commands) handleBalance(c tele.Context) error {
	ctx := context.Background()
	user, err := h.linkedUser(ctx, c)
	if user == nil {
		return err
	}
	return c.Reply(fmt.Sprintf("💰 %s 的积分: %d", user.Nickname, user.Points))
}

func (h *commands) handleDue(c tele.Context) error {
	ctx := context.Background()
	user, err := h.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	words, err := h.learning.ReviewDue(ctx, user.ID)
	if err != nil {
		return c.Reply(replyError(err, "查询失败"))
	}
	return c.Reply(formatDue(words, time.Now()))
}

func (h *commands) handleGoal(c tele.Context) error {
	ctx := context.Background()
	user, err := h.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	goal, err := h.goals.Recompute(ctx, user.ID)
	if err != nil {
		return c.Reply(replyError(err, "查询失败"))
	}
	return c.Reply(formatGoal(goal))
}

func (h *commands) handleAchievements(c tele.Context) error {
	ctx := context.Background()
	user, err := h.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	res, err := h.achievements.CheckAndUnlock(ctx, user.ID)
	if err != nil {
		return c.Reply(replyError(err, "检查失败"))
	}
	unlocked, err := h.achievements.Unlocked(ctx, user.ID)
	if err != nil {
		return c.Reply(replyError(err, "查询失败"))
	}
	return c.Reply(formatAchievements(res, unlocked))
}

func (h *commands) handleAdminAdd(c tele.Context) error {
	return h.adjust(c, service.OpAdd)
}

func (h *commands) handleAdminSub(c tele.Context) error {
	return h.adjust(c, service.OpSubtract)
}

// adjust handles /admin_add and /admin_sub: <nickname> <amount>.
func (h *commands) adjust(c tele.Context, op service.PointsOperation) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	nickname, amount, err := parseAdminArgs(c.Args())
	if err != nil {
		return c.Reply(err.Error())
	}

	target, err := h.accounts.GetByNickname(ctx, nickname)
	if err != nil {
		return c.Reply(replyError(err, "操作失败"))
	}

	balance, err := h.accounts.AdjustPoints(ctx, target.ID, amount, op)
	if err != nil {
		return c.Reply(replyError(err, "操作失败"))
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("user_id", target.ID).
		Int64("amount", amount).
		Str("operation", string(op)).
		Msg("Admin operation executed")

	sign := "➕ 添加"
	if op == service.OpSubtract {
		sign = "➖ 扣除"
	}
	return c.Reply(fmt.Sprintf(
		"✅ 操作成功\n\n"+
			"👤 用户: %s (ID: %d)\n"+
			"%s: %d 积分\n"+
			"💰 当前积分: %d",
		target.Nickname, target.ID, sign, amount, balance,
	))
}

// parseAdminArgs parses "<nickname> <amount>". The amount must be positive.
func parseAdminArgs(args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, errors.New("❌ 格式错误\n用法: <命令> <昵称> <积分>")
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, errors.New("❌ 积分必须是整数")
	}
	if amount <= 0 {
		return "", 0, errors.New("❌ 积分必须大于 0")
	}
	return args[0], amount, nil
}

func replyError(err error, fallback string) string {
	switch apperr.KindOf(err) {
	case apperr.KindInternal:
		return "❌ " + fallback + "，请稍后重试"
	default:
		return "❌ " + apperr.MessageOf(err)
	}
}

func formatDue(words []*model.LearnedWord, now time.Time) string {
	if len(words) == 0 {
		return "🎉 暂时没有需要复习的单词"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 待复习单词 (%d):\n\n", len(words))
	for i, w := range words {
		if i == dueListLimit {
			fmt.Fprintf(&sb, "... 还有 %d 个\n", len(words)-dueListLimit)
			break
		}
		overdue := int(now.Sub(w.NextReviewAt) / (24 * time.Hour))
		fmt.Fprintf(&sb, "• %s - %s (等级 %d", w.Word.Word, w.Meaning, w.MasteryLevel)
		if overdue > 0 {
			fmt.Fprintf(&sb, ", 逾期 %d 天", overdue)
		}
		sb.WriteString(")\n")
	}
	return sb.String()
}

func formatGoal(g *model.WeeklyGoal) string {
	status := "⏳ 进行中"
	if g.IsCompleted {
		status = "✅ 已完成"
	}
	remaining := max(0, g.TargetWords-g.LearnedWords)
	return fmt.Sprintf(
		"🎯 本周目标 (%s 起)\n\n"+
			"已学习: %d / %d\n"+
			"还差: %d\n"+
			"状态: %s",
		g.WeekStart.Format("2006-01-02"), g.LearnedWords, g.TargetWords, remaining, status,
	)
}

func formatAchievements(res *service.UnlockResult, unlocked []*model.UserAchievement) string {
	var sb strings.Builder
	if len(res.Unlocked) > 0 {
		sb.WriteString("🏆 新解锁成就:\n")
		for _, a := range res.Unlocked {
			fmt.Fprintf(&sb, "• %s (+%d 积分)\n", a.Name, a.RewardPoints)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "已解锁 %d 个成就\n💰 当前积分: %d", len(unlocked), res.Points)
	return sb.String()
}
