package discord

import (
	"github.com/projectnest/projectnest/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.discord",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if cfg.Discord.WebhookURL == "" {
		return &NoOpProvider{}
	}
	return NewWebhook(cfg.Discord.WebhookURL)
}
