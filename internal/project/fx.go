package project

import (
	"github.com/projectnest/projectnest/internal/project/repository"
	"github.com/projectnest/projectnest/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
