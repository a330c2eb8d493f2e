package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ZidanAK22/RateYourGroupMates/internal/models"
	"github.com/ZidanAK22/RateYourGroupMates/internal/recap"
)

const (
	studentHelp = `Available commands:
/token - Get a token for API access
/rate - Rate a teammate step by step
/mygrades - Show the latest ratings you received
/cancel - Abort an active /rate conversation
/help - Show this message`

	adminHelp = `Available commands:
/token - Get a token for API access
/rate - Rate a teammate step by step
/mygrades - Show the latest ratings you received
/class add <class_id> name <name> - Register a class
/class list - List classes
/group add <group_id> class <class_id> name <name> - Register a group
/group list <class_id> - List groups of a class
/participant add <nrp> name <full name> - Register a participant
/participant assign <nrp> group <group_id> - Move a participant into a group
/participant list <group_id> - List participants of a group
/bind <class_id> - Associate this chat with a class
/help - Show this message

Examples:
/class add IF184 name "Software Engineering"
/group add G01 class IF184 name "Team Rocket"
/participant add 0511940000 name Jane Doe
/participant assign 0511940000 group G01
/bind IF184`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeStudentCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":    b.handleStart,
		"token":    b.handleToken,
		"rate":     b.handleRate,
		"mygrades": b.handleMyGrades,
		"cancel":   b.handleCancel,
		"help":     b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"class":       b.handleClass,
		"group":       b.handleGroup,
		"participant": b.handleParticipant,
		"bind":        b.handleBind,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		// plain text feeds the active /rate conversation, if any
		if b.continueFlow(msg) {
			return
		}
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeStudentCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = studentHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Send /help for the list of commands.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I help with peer evaluation of your project group.\n\n"
	if b.admins[msg.From.ID] {
		text += "You administer this course. Send /help for the command list."
	} else {
		text += "Send /rate to rate a teammate or /token to get an API token."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleToken(msg *tgbotapi.Message) error {
	ctx := context.Background()

	nrp, err := b.sessions.FetchNRPByTelegram(ctx, msg.From.UserName)
	if err != nil {
		return fmt.Errorf("your telegram account is not linked to an NRP yet, ask your admin")
	}

	info, isNew, err := b.sessions.FetchOrCreateParticipantToken(ctx, nrp)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %v", err)
	}

	status := "existing"
	if isNew {
		status = "new"
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"Your %s token:\n%s\n\nRequests so far: %d",
		status, info.Token, info.RequestCount,
	))
}

func (b *Bot) handleMyGrades(msg *tgbotapi.Message) error {
	ctx := context.Background()

	nrp, err := b.sessions.FetchNRPByTelegram(ctx, msg.From.UserName)
	if err != nil {
		return fmt.Errorf("your telegram account is not linked to an NRP yet, ask your admin")
	}

	rows, err := recap.ForRatee(b.store, nrp)
	if err != nil {
		return fmt.Errorf("failed to fetch your ratings: %v", err)
	}

	if len(rows) == 0 {
		return b.sendMessage(msg.Chat.ID, "Nobody has rated you yet.")
	}

	var sb strings.Builder
	sb.WriteString("Latest ratings you received:\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("\n%s (%s): %d/5", row.RaterName, row.RaterID, row.Score))
		if row.Comment != "" {
			sb.WriteString(fmt.Sprintf("\n  %q", row.Comment))
		}
	}

	return b.sendMessage(msg.Chat.ID, sb.String())
}

func (b *Bot) handleClass(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return b.sendMessage(msg.Chat.ID, "Usage:\n"+
			"/class add <class_id> name <name>\n"+
			"/class list")
	}

	switch args[0] {
	case "add":
		return b.handleClassAdd(msg.Chat.ID, args[1:])
	case "list":
		return b.handleClassList(msg.Chat.ID)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (b *Bot) handleClassAdd(chatID int64, args []string) error {
	if len(args) < 3 || args[1] != "name" {
		return fmt.Errorf("usage: add <class_id> name <name>")
	}

	class := models.Class{
		ClassID:   args[0],
		ClassName: unquote(strings.Join(args[2:], " ")),
	}

	if err := b.store.CreateClass(class); err != nil {
		return fmt.Errorf("failed to save class: %v", err)
	}

	return b.sendMessage(chatID, fmt.Sprintf("✅ Class %s (%s) saved", class.ClassID, class.ClassName))
}

func (b *Bot) handleClassList(chatID int64) error {
	classes, err := b.store.ListClasses()
	if err != nil {
		return fmt.Errorf("failed to list classes: %v", err)
	}

	if len(classes) == 0 {
		return b.sendMessage(chatID, "No classes registered yet.")
	}

	var sb strings.Builder
	sb.WriteString("Classes:\n")
	for _, c := range classes {
		sb.WriteString(fmt.Sprintf("\n%s - %s", c.ClassID, c.ClassName))
	}
	return b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleGroup(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return b.sendMessage(msg.Chat.ID, "Usage:\n"+
			"/group add <group_id> class <class_id> name <name>\n"+
			"/group list <class_id>")
	}

	switch args[0] {
	case "add":
		return b.handleGroupAdd(msg.Chat.ID, args[1:])
	case "list":
		if len(args) < 2 {
			return fmt.Errorf("specify the class: /group list IF184")
		}
		return b.handleGroupList(msg.Chat.ID, args[1])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (b *Bot) handleGroupAdd(chatID int64, args []string) error {
	if len(args) < 5 || args[1] != "class" || args[3] != "name" {
		return fmt.Errorf("usage: add <group_id> class <class_id> name <name>")
	}

	group := models.Group{
		GroupID:   args[0],
		ClassID:   args[2],
		GroupName: unquote(strings.Join(args[4:], " ")),
	}

	if err := b.store.CreateGroup(group); err != nil {
		return fmt.Errorf("failed to save group: %v", err)
	}

	return b.sendMessage(chatID, fmt.Sprintf(
		"✅ Group %s (%s) saved under class %s",
		group.GroupID, group.GroupName, group.ClassID,
	))
}

func (b *Bot) handleGroupList(chatID int64, classID string) error {
	groups, err := b.store.ListGroups(classID)
	if err != nil {
		return fmt.Errorf("failed to list groups: %v", err)
	}

	if len(groups) == 0 {
		return b.sendMessage(chatID, fmt.Sprintf("No groups registered for class %s.", classID))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Groups in %s:\n", classID))
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("\n%s - %s", g.GroupID, g.GroupName))
	}
	return b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleParticipant(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return b.sendMessage(msg.Chat.ID, "Usage:\n"+
			"/participant add <nrp> name <full name>\n"+
			"/participant assign <nrp> group <group_id>\n"+
			"/participant list <group_id>")
	}

	switch args[0] {
	case "add":
		return b.handleParticipantAdd(msg.Chat.ID, args[1:])
	case "assign":
		return b.handleParticipantAssign(msg.Chat.ID, args[1:])
	case "list":
		if len(args) < 2 {
			return fmt.Errorf("specify the group: /participant list G01")
		}
		return b.handleParticipantList(msg.Chat.ID, args[1])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (b *Bot) handleParticipantAdd(chatID int64, args []string) error {
	if len(args) < 3 || args[1] != "name" {
		return fmt.Errorf("usage: add <nrp> name <full name>")
	}

	participant := models.Participant{
		NRP:      args[0],
		FullName: unquote(strings.Join(args[2:], " ")),
	}

	if err := b.store.CreateParticipant(participant); err != nil {
		return fmt.Errorf("failed to save participant: %v", err)
	}

	return b.sendMessage(chatID, fmt.Sprintf(
		"✅ Participant %s (%s) saved, not assigned to a group yet",
		participant.NRP, participant.FullName,
	))
}

func (b *Bot) handleParticipantAssign(chatID int64, args []string) error {
	if len(args) < 3 || args[1] != "group" {
		return fmt.Errorf("usage: assign <nrp> group <group_id>")
	}

	if err := b.store.AssignParticipant(args[0], args[2]); err != nil {
		return fmt.Errorf("failed to assign participant: %v", err)
	}

	return b.sendMessage(chatID, fmt.Sprintf("✅ Participant %s moved to group %s", args[0], args[2]))
}

func (b *Bot) handleParticipantList(chatID int64, groupID string) error {
	participants, err := b.store.ListParticipants(groupID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %v", err)
	}

	if len(participants) == 0 {
		return b.sendMessage(chatID, fmt.Sprintf("No participants in group %s.", groupID))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Participants in %s:\n", groupID))
	for _, p := range participants {
		sb.WriteString(fmt.Sprintf("\n%s - %s", p.NRP, p.FullName))
	}
	return b.sendMessage(chatID, sb.String())
}

func (b *Bot) handleBind(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return fmt.Errorf("usage: /bind <class_id>")
	}

	mapping := &models.ChatClassMapping{
		ClassID:         args[0],
		Name:            msg.Chat.Title,
		AssociationTime: time.Now().UTC(),
		RegisteredBy:    msg.From.ID,
	}

	if err := b.sessions.AssociateChatWithClass(context.Background(), msg.Chat.ID, mapping); err != nil {
		return fmt.Errorf("failed to bind chat: %v", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ This chat now belongs to class %s", args[0]))
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}
