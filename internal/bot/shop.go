package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"word-garden/internal/model"
)

// Callback data prefixes. Item callbacks carry "<type>:<id>".
const (
	CallbackShopItem    = "shop_item:"   // shop_item:garden:3
	CallbackShopBuy     = "shop_buy:"    // shop_buy:garden:3
	CallbackShopCancel  = "shop_cancel"  // shop_cancel
	CallbackShopRefresh = "shop_refresh" // shop_refresh
)

// itemRef identifies a catalog item in callback data.
type itemRef struct {
	Type model.ItemType
	ID   int64
}

func (r itemRef) String() string {
	return string(r.Type) + ":" + strconv.FormatInt(r.ID, 10)
}

func parseItemRef(s string) (itemRef, bool) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || !model.ItemType(typ).Valid() {
		return itemRef{}, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return itemRef{}, false
	}
	return itemRef{Type: model.ItemType(typ), ID: n}, true
}

// buildShopPanel lays the catalog out two buttons per row.
func buildShopPanel(items []*model.CatalogItem) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	var current []tele.Btn
	for i, item := range items {
		btn := markup.Data(
			fmt.Sprintf("%s %s (%d💰)", itemEmoji(item.ItemType), item.Name, item.Price),
			CallbackShopItem+itemRef{Type: item.ItemType, ID: item.ID}.String(),
		)
		current = append(current, btn)
		if len(current) == 2 || i == len(items)-1 {
			rows = append(rows, markup.Row(current...))
			current = nil
		}
	}
	rows = append(rows, markup.Row(markup.Data("🔄 刷新", CallbackShopRefresh)))

	markup.Inline(rows...)
	return markup
}

func buildConfirmPanel(ref itemRef) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ 购买", CallbackShopBuy+ref.String()),
		markup.Data("❌ 取消", CallbackShopCancel),
	))
	return markup
}

func itemEmoji(t model.ItemType) string {
	if t == model.ItemGarden {
		return "🌷"
	}
	return "👕"
}

func formatShopMessage(points int64) string {
	return "🏪 欢迎来到花园商店\n" +
		"━━━━━━━━━━━━━━━\n" +
		fmt.Sprintf("💰 你的积分: %d\n", points) +
		"━━━━━━━━━━━━━━━\n" +
		"点击下方按钮查看商品详情："
}

func formatItemDetail(item *model.CatalogItem, points int64) string {
	msg := fmt.Sprintf("%s %s\n", itemEmoji(item.ItemType), item.Name)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 价格: %d 积分\n", item.Price)
	if item.Description != "" {
		msg += fmt.Sprintf("📝 %s\n", item.Description)
	}
	msg += "━━━━━━━━━━━━━━━\n"
	if points < item.Price {
		msg += fmt.Sprintf("❌ 积分不足 (还差 %d)", item.Price-points)
	} else {
		msg += fmt.Sprintf("✅ 购买后剩余: %d", points-item.Price)
	}
	return msg
}

func formatInventory(items []*model.InventoryItem) string {
	if len(items) == 0 {
		return "🎒 背包是空的，发送 /shop 去逛逛"
	}

	var sb strings.Builder
	sb.WriteString("🎒 我的背包\n━━━━━━━━━━━━━━━\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "%s %s", itemEmoji(it.ItemType), it.Name)
		if it.IsEquipped {
			sb.WriteString(" (已装备)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// catalog returns both item types, character items first.
func (h *commands) catalog(ctx context.Context) ([]*model.CatalogItem, error) {
	var all []*model.CatalogItem
	for _, t := range []model.ItemType{model.ItemCharacter, model.ItemGarden} {
		items, err := h.shop.Items(ctx, t)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

func (h *commands) findItem(ctx context.Context, ref itemRef) (*model.CatalogItem, error) {
	items, err := h.shop.Items(ctx, ref.Type)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == ref.ID {
			return it, nil
		}
	}
	return nil, nil
}

func (h *commands) handleShop(c tele.Context) error {
	ctx := context.Background()
	user, err := h.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	items, err := h.catalog(ctx)
	if err != nil {
		return c.Reply(replyError(err, "加载商店失败"))
	}
	return c.Reply(formatShopMessage(user.Points), buildShopPanel(items))
}

func (h *commands) handleBag(c tele.Context) error {
	ctx := context.Background()
	user, err := h.linkedUser(ctx, c)
	if user == nil {
		return err
	}

	items, err := h.shop.Inventory(ctx, user.ID)
	if err != nil {
		return c.Reply(replyError(err, "获取背包失败"))
	}
	return c.Reply(formatInventory(items))
}

// handleShopCallback serves the inline shop buttons. data has the telebot
// prefix already stripped.
func (h *commands) handleShopCallback(c tele.Context, data string) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, err := h.accounts.GetByTelegramID(ctx, sender.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: replyNotLinked, ShowAlert: true})
	}

	switch {
	case data == CallbackShopRefresh, data == CallbackShopCancel:
		items, err := h.catalog(ctx)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "❌ 加载商店失败", ShowAlert: true})
		}
		return c.Edit(formatShopMessage(user.Points), buildShopPanel(items))

	case strings.HasPrefix(data, CallbackShopItem):
		ref, ok := parseItemRef(strings.TrimPrefix(data, CallbackShopItem))
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "❌ 无效的商品"})
		}
		item, err := h.findItem(ctx, ref)
		if err != nil || item == nil {
			return c.Respond(&tele.CallbackResponse{Text: "❌ 商品不存在", ShowAlert: true})
		}
		return c.Edit(formatItemDetail(item, user.Points), buildConfirmPanel(ref))

	case strings.HasPrefix(data, CallbackShopBuy):
		ref, ok := parseItemRef(strings.TrimPrefix(data, CallbackShopBuy))
		if !ok {
			return c.Respond(&tele.CallbackResponse{Text: "❌ 无效的商品"})
		}
		if !h.purchases.TryLock(user.ID) {
			return c.Respond(&tele.CallbackResponse{Text: "⏳ 上一笔购买正在处理中"})
		}
		defer h.purchases.Unlock(user.ID)

		res, err := h.shop.Purchase(ctx, user.ID, ref.ID, ref.Type)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: replyError(err, "购买失败"), ShowAlert: true})
		}

		log.Info().
			Int64("user_id", user.ID).
			Int64("item_id", ref.ID).
			Str("item_type", string(ref.Type)).
			Int64("points", res.Points).
			Msg("Item purchased via bot")

		_ = c.Respond(&tele.CallbackResponse{Text: "✅ 购买成功"})
		items, err := h.catalog(ctx)
		if err != nil {
			return nil
		}
		return c.Edit(formatShopMessage(res.Points), buildShopPanel(items))
	}

	return c.Respond()
}
