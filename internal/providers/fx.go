package providers

import (
	"github.com/projectnest/projectnest/internal/providers/discord"
	"github.com/projectnest/projectnest/internal/providers/email"
	"github.com/projectnest/projectnest/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	discord.Module,
	pdf.Module,
)
