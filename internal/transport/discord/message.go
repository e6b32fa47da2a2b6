package discord

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"heraldbot/internal/broadcast"
)

// buildMessage renders a payload into the platform message shape: one embed
// plus link-button rows laid out by broadcast.Layout.
func buildMessage(p broadcast.Payload) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       p.Embed.Title,
		Description: p.Embed.Description,
	}
	if c, ok := parseColor(p.Embed.Color); ok {
		embed.Color = c
	}
	if p.Embed.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.Embed.ImageURL}
	}
	if p.Embed.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: p.Embed.Footer}
	}

	msg := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	for _, row := range broadcast.Layout(p.CTAs) {
		ar := discordgo.ActionsRow{}
		for _, cta := range row {
			ar.Components = append(ar.Components, discordgo.Button{
				Style: discordgo.LinkButton,
				Label: cta.Label,
				URL:   cta.URL,
			})
		}
		msg.Components = append(msg.Components, ar)
	}
	return msg
}

// parseColor converts "#rrggbb" to the integer form embeds carry. The payload
// builder already dropped malformed values, so failures here just mean no
// color.
func parseColor(c string) (int, bool) {
	c = strings.TrimPrefix(c, "#")
	if c == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(c, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
