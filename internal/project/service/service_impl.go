package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/projectnest/projectnest/internal/clock"
	"github.com/projectnest/projectnest/internal/project/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Project, error) {
	project, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (s *Service) Claim(ctx context.Context, id, userID snowflake.ID) (*domain.Project, error) {
	var claimed *domain.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if project == nil {
			return domain.ErrProjectNotFound
		}
		if project.UserID != nil {
			if *project.UserID == userID {
				claimed = project
				return nil
			}
			return domain.ErrAlreadyClaimed
		}

		ok, err := s.repo.Claim(ctx, tx, id, userID, s.clock.Now())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyClaimed
		}

		project, err = s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		claimed = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("project claimed",
		zap.Int64("project_id", int64(id)),
		zap.Int64("user_id", int64(userID)),
	)
	return claimed, nil
}
