package seed

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/projectnest/projectnest/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(run),
)

func run(cfg config.Config, db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Environment)) {
	case "dev", "development", "local":
	default:
		return nil
	}

	if err := EnsureDemoData(db, node); err != nil {
		return err
	}
	log.Info("demo data ensured")
	return nil
}
