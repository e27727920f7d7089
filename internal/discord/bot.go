package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// Prompter answers one prompt. agent.Agent satisfies it.
type Prompter interface {
	HandlePrompt(ctx context.Context, prompt string) string
}

type Bot struct {
	session *discordgo.Session
	agent   Prompter
	log     zerolog.Logger
	// busy serializes prompts: one is answered fully before the next starts.
	busy sync.Mutex
}

func NewBot(token string, ag Prompter, log zerolog.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{session: s, agent: ag, log: log}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	log.Info().Str("user", s.State.User.Username).Msg("Discord bot connected")
	return bot, nil
}

func (b *Bot) Close() {
	b.session.Close()
}
