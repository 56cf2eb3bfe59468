package paystack

import (
	"github.com/projectnest/projectnest/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("gateway.paystack",
	fx.Provide(func(c *Client) domain.Gateway { return c }),
	fx.Provide(New),
)
