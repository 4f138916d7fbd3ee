package models

// TelegramConfig stores the bot credentials used for report notifications.
// APIURL comes from the server configuration only and is never read from
// or written to JSON.
type TelegramConfig struct {
	IsEnabled bool   `json:"is_enabled"`
	BotToken  string `json:"bot_token"`
	ChatID    string `json:"chat_id"`
	APIURL    string `json:"-"`
}

// Redacted returns a copy safe to log or send back to a client
func (c TelegramConfig) Redacted() TelegramConfig {
	if len(c.BotToken) > 4 {
		c.BotToken = "••••" + c.BotToken[len(c.BotToken)-4:]
	} else if c.BotToken != "" {
		c.BotToken = "••••"
	}
	return c
}
