package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/selector"
)

// The /rate conversation walks the cascading form one field at a time:
// class, group, rater, ratee, score, comment. Every step narrows the next
// and stepping back is not supported, /cancel starts over.
type flowStep int

const (
	stepClass flowStep = iota
	stepGroup
	stepRater
	stepRatee
	stepScore
	stepComment
)

type rateFlow struct {
	sel  *selector.Selector
	step flowStep
}

func (b *Bot) handleRate(msg *tgbotapi.Message) error {
	sel := selector.New(b.store)
	if err := sel.LoadClasses(); err != nil {
		return fmt.Errorf("failed to load classes: %v", err)
	}

	classes := sel.ClassOptions()
	if len(classes) == 0 {
		return b.sendMessage(msg.Chat.ID, "No classes registered yet, nothing to rate.")
	}

	b.mu.Lock()
	b.flows[msg.Chat.ID] = &rateFlow{sel: sel, step: stepClass}
	b.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("Pick your class (reply with the number or the id):\n")
	for i, c := range classes {
		sb.WriteString(fmt.Sprintf("\n%d. %s - %s", i+1, c.ClassID, c.ClassName))
	}
	return b.sendMessage(msg.Chat.ID, sb.String())
}

func (b *Bot) handleCancel(msg *tgbotapi.Message) error {
	b.mu.Lock()
	_, active := b.flows[msg.Chat.ID]
	delete(b.flows, msg.Chat.ID)
	b.mu.Unlock()

	if !active {
		return b.sendMessage(msg.Chat.ID, "Nothing to cancel.")
	}
	return b.sendMessage(msg.Chat.ID, "Rating cancelled.")
}

// continueFlow feeds a plain-text message into the chat's active /rate
// conversation. Returns false when the chat has none.
func (b *Bot) continueFlow(msg *tgbotapi.Message) bool {
	b.mu.Lock()
	flow, ok := b.flows[msg.Chat.ID]
	b.mu.Unlock()
	if !ok {
		return false
	}

	if err := b.advanceFlow(msg.Chat.ID, flow, strings.TrimSpace(msg.Text)); err != nil {
		logger.Error.Printf("Rate flow error in chat %d: %v", msg.Chat.ID, err)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
	}
	return true
}

func (b *Bot) advanceFlow(chatID int64, flow *rateFlow, input string) error {
	switch flow.step {
	case stepClass:
		classes := flow.sel.ClassOptions()
		idx := resolveOption(input, len(classes), func(i int) string { return classes[i].ClassID })
		if idx < 0 {
			return fmt.Errorf("pick one of the listed classes")
		}

		if err := flow.sel.SelectClass(classes[idx].ClassID); err != nil {
			return err
		}

		groups := flow.sel.GroupOptions()
		if len(groups) == 0 {
			return fmt.Errorf("class %s has no groups yet", classes[idx].ClassID)
		}

		flow.step = stepGroup
		var sb strings.Builder
		sb.WriteString("Pick your project group:\n")
		for i, g := range groups {
			sb.WriteString(fmt.Sprintf("\n%d. %s - %s", i+1, g.GroupID, g.GroupName))
		}
		return b.sendMessage(chatID, sb.String())

	case stepGroup:
		groups := flow.sel.GroupOptions()
		idx := resolveOption(input, len(groups), func(i int) string { return groups[i].GroupID })
		if idx < 0 {
			return fmt.Errorf("pick one of the listed groups")
		}

		if err := flow.sel.SelectGroup(groups[idx].GroupID); err != nil {
			return err
		}

		raters := flow.sel.RaterOptions()
		if len(raters) == 0 {
			return fmt.Errorf("group %s has no participants yet", groups[idx].GroupID)
		}

		flow.step = stepRater
		var sb strings.Builder
		sb.WriteString("Who are you?\n")
		for i, p := range raters {
			sb.WriteString(fmt.Sprintf("\n%d. %s - %s", i+1, p.NRP, p.FullName))
		}
		return b.sendMessage(chatID, sb.String())

	case stepRater:
		raters := flow.sel.RaterOptions()
		idx := resolveOption(input, len(raters), func(i int) string { return raters[i].NRP })
		if idx < 0 {
			return fmt.Errorf("pick one of the listed participants")
		}

		flow.sel.SelectRater(raters[idx].NRP)

		ratees := flow.sel.RateeOptions()
		if len(ratees) == 0 {
			return fmt.Errorf("nobody else in this group to rate")
		}

		flow.step = stepRatee
		var sb strings.Builder
		sb.WriteString("Which teammate do you want to rate?\n")
		for i, p := range ratees {
			sb.WriteString(fmt.Sprintf("\n%d. %s - %s", i+1, p.NRP, p.FullName))
		}
		return b.sendMessage(chatID, sb.String())

	case stepRatee:
		ratees := flow.sel.RateeOptions()
		idx := resolveOption(input, len(ratees), func(i int) string { return ratees[i].NRP })
		if idx < 0 {
			return fmt.Errorf("pick one of the listed teammates")
		}

		if err := flow.sel.SelectRatee(ratees[idx].NRP); err != nil {
			return err
		}

		flow.step = stepScore
		return b.sendMessage(chatID, fmt.Sprintf(
			"Score from 1 to 5 (send - to keep the default %d):", selector.DefaultScore,
		))

	case stepScore:
		if input != "-" {
			score, err := strconv.Atoi(input)
			if err != nil {
				return fmt.Errorf("score must be a number from 1 to 5")
			}
			flow.sel.SetScore(score)
		}

		flow.step = stepComment
		return b.sendMessage(chatID, "Optional comment (send - to skip):")

	case stepComment:
		if input != "-" {
			flow.sel.SetComment(input)
		}
		return b.submitFlow(chatID, flow)
	}

	return fmt.Errorf("unexpected flow step %d", flow.step)
}

func (b *Bot) submitFlow(chatID int64, flow *rateFlow) error {
	input, err := flow.sel.BeginSubmit()
	if err != nil {
		return err
	}

	if err := input.Validate(); err != nil {
		flow.sel.EndSubmit(false)
		return err
	}

	rating := input.ToRating()
	if err := b.store.CreateRating(rating); err != nil {
		flow.sel.EndSubmit(false)
		return fmt.Errorf("failed to save rating: %v", err)
	}

	flow.sel.EndSubmit(true)

	b.mu.Lock()
	delete(b.flows, chatID)
	b.mu.Unlock()

	return b.sendMessage(chatID, fmt.Sprintf(
		"✅ Rated %s with %d/5. Thanks!", input.RateeID, input.Score,
	))
}

// resolveOption matches user input against an option list, by 1-based
// index or by identifier.
func resolveOption(input string, n int, idAt func(int) string) int {
	if idx, err := strconv.Atoi(input); err == nil {
		if idx >= 1 && idx <= n {
			return idx - 1
		}
		return -1
	}

	for i := 0; i < n; i++ {
		if strings.EqualFold(idAt(i), input) {
			return i
		}
	}
	return -1
}
