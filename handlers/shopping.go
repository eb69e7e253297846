package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func (b *Bot) showShoppingLists(ctx context.Context, ev Event) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}
	lists, err := b.shopping.ActiveLists(user.ID)
	if err != nil {
		b.log.WithError(err).Error("load shopping lists")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}

	var rows [][]Button
	for _, l := range lists {
		rows = append(rows, []Button{{
			Label:  fmt.Sprintf("📋 %s (%d)", l.Name, len(l.Items)),
			Action: fmt.Sprintf("list:open:%d", l.ID),
		}})
	}
	rows = append(rows, []Button{{Label: "➕ New list", Action: "list:new"}})

	text := "🛒 <b>Your shopping lists</b>"
	if len(lists) == 0 {
		text = "You have no shopping lists yet."
	}
	if ev.CallbackID != "" {
		b.edit(ev.ChatID, ev.MessageID, text, &Keyboard{Inline: rows})
	} else {
		b.send(ev.ChatID, text, &Keyboard{Inline: rows})
	}
}

func (b *Bot) shoppingCallback(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	user := b.requireUser(ev)
	if user == nil {
		return
	}

	if verb == "item" {
		// item:<itemID>:<listID>
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return
		}
		itemID, err1 := strconv.Atoi(parts[0])
		listID, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return
		}
		if _, err := b.shopping.ToggleItem(user.ID, uint(itemID)); err != nil {
			b.log.WithError(err).Warn("toggle item")
			return
		}
		b.renderList(ev, user.ID, uint(listID), true)
		return
	}

	op, rest := splitAction(arg)
	switch op {
	case "new":
		sess.Clear()
		sess.Step = StepShoppingCreate
		b.edit(ev.ChatID, ev.MessageID, "What should the new list be called?", nil)
	case "back":
		b.showShoppingLists(ctx, ev)
	case "open":
		if id, err := strconv.Atoi(rest); err == nil {
			b.renderList(ev, user.ID, uint(id), true)
		}
	case "add":
		if id, err := strconv.Atoi(rest); err == nil {
			sess.Clear()
			sess.Step = StepShoppingAddItem
			sess.Set("list_id", uint(id))
			b.edit(ev.ChatID, ev.MessageID,
				"Send the item, optionally with an amount after a comma: <i>Milk, 2 l</i>", nil)
		}
	case "ren":
		if id, err := strconv.Atoi(rest); err == nil {
			sess.Clear()
			sess.Step = StepShoppingRename
			sess.Set("list_id", uint(id))
			b.edit(ev.ChatID, ev.MessageID, "Send the new list name.", nil)
		}
	case "arch":
		if id, err := strconv.Atoi(rest); err == nil {
			if err := b.shopping.ArchiveList(user.ID, uint(id)); err != nil {
				b.log.WithError(err).Warn("archive list")
			}
			b.showShoppingLists(ctx, ev)
		}
	}
}

func (b *Bot) shoppingText(ctx context.Context, ev Event, sess *Session) {
	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		b.send(ev.ChatID, "Please send a name.", nil)
		return
	}

	switch sess.Step {
	case StepShoppingCreate:
		list, err := b.shopping.CreateList(user.ID, text)
		if err != nil {
			b.log.WithError(err).Error("create list")
			b.send(ev.ChatID, msgInternalError, mainKeyboard())
			return
		}
		sess.Clear()
		b.renderList(ev, user.ID, list.ID, false)

	case StepShoppingRename:
		listID := sess.Uint("list_id")
		if err := b.shopping.RenameList(user.ID, listID, text); err != nil {
			b.log.WithError(err).Error("rename list")
			b.send(ev.ChatID, msgInternalError, mainKeyboard())
			return
		}
		sess.Clear()
		b.renderList(ev, user.ID, listID, false)

	case StepShoppingAddItem:
		listID := sess.Uint("list_id")
		name, quantity := text, ""
		if i := strings.Index(text, ","); i >= 0 {
			name = strings.TrimSpace(text[:i])
			quantity = strings.TrimSpace(text[i+1:])
		}
		if _, err := b.shopping.AddItem(user.ID, listID, name, quantity, ev.UserID); err != nil {
			b.log.WithError(err).Error("add item")
			b.send(ev.ChatID, msgInternalError, mainKeyboard())
			return
		}
		// stay on this step so several items can be added in a row
		b.renderList(ev, user.ID, listID, false)
	}
}

func (b *Bot) renderList(ev Event, userID, listID uint, edit bool) {
	list, err := b.shopping.GetList(userID, listID)
	if err != nil {
		b.log.WithError(err).Error("load list")
		b.send(ev.ChatID, msgInternalError, mainKeyboard())
		return
	}
	if list == nil {
		b.send(ev.ChatID, "That list does not exist anymore.", mainKeyboard())
		return
	}

	var rows [][]Button
	for _, item := range list.Items {
		mark := "⬜"
		if item.Checked {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s", mark, item.Name)
		if item.Quantity != "" {
			label += " (" + item.Quantity + ")"
		}
		rows = append(rows, []Button{{
			Label:  label,
			Action: fmt.Sprintf("item:%d:%d", item.ID, list.ID),
		}})
	}
	rows = append(rows,
		[]Button{
			{Label: "➕ Add item", Action: fmt.Sprintf("list:add:%d", list.ID)},
			{Label: "✏️ Rename", Action: fmt.Sprintf("list:ren:%d", list.ID)},
		},
		[]Button{
			{Label: "🗄 Archive", Action: fmt.Sprintf("list:arch:%d", list.ID)},
			{Label: "« Lists", Action: "list:back"},
		},
	)

	text := fmt.Sprintf("📋 <b>%s</b>", list.Name)
	if len(list.Items) == 0 {
		text += "\n\nThe list is empty, add something."
	}
	if edit {
		b.edit(ev.ChatID, ev.MessageID, text, &Keyboard{Inline: rows})
	} else {
		b.send(ev.ChatID, text, &Keyboard{Inline: rows})
	}
}
