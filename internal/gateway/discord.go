package gateway

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/rahul/agendabot/internal/dialog"
	"github.com/rahul/agendabot/internal/observability"
	"github.com/rahul/agendabot/internal/render"
)

const (
	discordLimit   = 2000
	discordPerRow  = 5
	discordRows    = 5
	discordLabel   = 80
	discordIDLimit = 100
)

// DiscordGateway serves the same workflows through channel messages and
// message buttons. A conversation is one user in one channel.
type DiscordGateway struct {
	Session *discordgo.Session
	Engine  Dispatcher
	Logger  *observability.Logger

	lanes *lanes
	ctx   context.Context
}

func NewDiscordGateway(token string, engine Dispatcher, logger *observability.Logger) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	dg := &DiscordGateway{
		Session: s,
		Engine:  engine,
		Logger:  logger,
		lanes:   newLanes(),
		ctx:     context.Background(),
	}
	s.AddHandler(dg.onMessage)
	s.AddHandler(dg.onInteraction)
	return dg, nil
}

func (dg *DiscordGateway) Name() string { return "discord" }

func (dg *DiscordGateway) Start(ctx context.Context) error {
	dg.ctx = ctx
	if err := dg.Session.Open(); err != nil {
		dg.Logger.LogGateway(dg.Name(), "start", err)
		return fmt.Errorf("open discord session: %w", err)
	}
	if u := dg.Session.State.User; u != nil {
		log.Printf("[gateway] discord connected as %s", u.Username)
	}
	dg.Logger.LogGateway(dg.Name(), "start", nil)

	<-ctx.Done()
	return dg.Stop()
}

func (dg *DiscordGateway) Stop() error {
	dg.lanes.close()
	return dg.Session.Close()
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || strings.TrimSpace(m.Content) == "" {
		return
	}
	dg.dispatch(conversationKey(m.ChannelID, m.GuildID, m.Author.ID), dialog.ParseInput(m.Content))
}

func (dg *DiscordGateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("[gateway] discord interaction ack failed: %v", err)
	}

	user := i.User
	if i.Member != nil && i.Member.User != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}
	dg.dispatch(conversationKey(i.ChannelID, i.GuildID, user.ID), dialog.Select(i.MessageComponentData().CustomID))
}

func (dg *DiscordGateway) dispatch(key string, ev dialog.Event) {
	queued := dg.lanes.run(key, func() {
		for _, r := range dg.Engine.Dispatch(dg.ctx, key, ev) {
			if err := dg.Send(key, r); err != nil {
				log.Printf("[gateway] discord send to %s failed: %v", key, err)
				dg.Logger.LogGateway(dg.Name(), "send", err)
			}
		}
	})
	if !queued {
		log.Printf("[gateway] discord is stopping, dropped event for %s", key)
	}
}

// Send delivers r to the channel part of chatID. Keyboards larger than one
// message allows continue in follow-up messages.
func (dg *DiscordGateway) Send(chatID string, r dialog.Reply) error {
	channelID, _, _ := strings.Cut(chatID, ":")
	if channelID == "" {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	chunks := splitMessage(htmlToMarkdown(r.Text), discordLimit)
	groups := componentGroups(r.Buttons)
	for i, chunk := range chunks {
		msg := &discordgo.MessageSend{Content: chunk}
		if i == len(chunks)-1 && len(groups) > 0 {
			msg.Components = groups[0]
			groups = groups[1:]
		}
		if _, err := dg.Session.ChannelMessageSendComplex(channelID, msg); err != nil {
			return err
		}
	}
	for _, g := range groups {
		if _, err := dg.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Components: g}); err != nil {
			return err
		}
	}
	return nil
}

// conversationKey keeps direct messages per channel and splits guild
// channels per author, since several people may use the bot there at once.
func conversationKey(channelID, guildID, userID string) string {
	if guildID == "" {
		return channelID
	}
	return channelID + ":" + userID
}

// componentGroups lays a keyboard out as Discord action rows, at most five
// buttons per row and five rows per message.
func componentGroups(kb render.Keyboard) [][]discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for _, row := range kb {
		for start := 0; start < len(row); start += discordPerRow {
			end := min(start+discordPerRow, len(row))
			var buttons []discordgo.MessageComponent
			for _, b := range row[start:end] {
				if len(b.Token) > discordIDLimit {
					continue
				}
				buttons = append(buttons, discordgo.Button{
					Label:    truncate(b.Label, discordLabel),
					Style:    discordgo.SecondaryButton,
					CustomID: b.Token,
				})
			}
			if len(buttons) > 0 {
				rows = append(rows, discordgo.ActionsRow{Components: buttons})
			}
		}
	}

	var groups [][]discordgo.MessageComponent
	for start := 0; start < len(rows); start += discordRows {
		groups = append(groups, rows[start:min(start+discordRows, len(rows))])
	}
	return groups
}

var markdownTags = strings.NewReplacer(
	"<b>", "**", "</b>", "**",
	"<i>", "*", "</i>", "*",
	"<code>", "`", "</code>", "`",
)

// htmlToMarkdown converts the reply HTML subset to Discord markdown.
func htmlToMarkdown(s string) string {
	return html.UnescapeString(markdownTags.Replace(s))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
