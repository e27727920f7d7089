package discord

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects messages longer than this.
const maxMessageLen = 2000

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author.ID == s.State.User.ID {
		return
	}

	prompt, ok := promptFor(m.Message, s.State.User.ID)
	if !ok {
		return
	}

	// Show typing indicator
	s.ChannelTyping(m.ChannelID)

	reply := b.answer(prompt)
	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			b.log.Error().Err(err).Str("channel", m.ChannelID).Msg("sending reply")
			return
		}
	}
}

func (b *Bot) answer(prompt string) string {
	b.busy.Lock()
	defer b.busy.Unlock()
	return b.agent.HandlePrompt(context.Background(), prompt)
}

// promptFor extracts the prompt from a DM or a message mentioning botID.
func promptFor(m *discordgo.Message, botID string) (string, bool) {
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == botID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return "", false
	}

	content := strings.TrimSpace(stripMention(m.Content, botID))
	return content, content != ""
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end >= len(s) {
			end = len(s)
		} else {
			// Never cut a rune in half
			for end > 0 && !utf8.RuneStart(s[end]) {
				end--
			}
			if end == 0 {
				_, end = utf8.DecodeRuneInString(s)
			}
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
