package payment

import (
	"github.com/projectnest/projectnest/internal/payment/repository"
	"github.com/projectnest/projectnest/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
