package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/projectnest/projectnest/internal/clock"
	"github.com/projectnest/projectnest/internal/config"
	"github.com/projectnest/projectnest/internal/entitlement"
	"github.com/projectnest/projectnest/internal/notify"
	obsmetrics "github.com/projectnest/projectnest/internal/observability/metrics"
	"github.com/projectnest/projectnest/internal/payment/domain"
	projectdomain "github.com/projectnest/projectnest/internal/project/domain"
	pkgdb "github.com/projectnest/projectnest/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg         config.Config
	Catalog     *config.CatalogHolder
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ProjectRepo projectdomain.Repository
	Gateway     domain.Gateway
	Sink        notify.Sink
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	cfg         config.Config
	catalog     *config.CatalogHolder
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	projectRepo projectdomain.Repository
	gateway     domain.Gateway
	sink        notify.Sink
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Cfg,
		catalog:     p.Catalog,
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		projectRepo: p.ProjectRepo,
		gateway:     p.Gateway,
		sink:        p.Sink,
		metrics:     p.Metrics,
	}
}

func (s *Service) InitiateCheckout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.TargetType != domain.TargetProject && req.TargetType != domain.TargetLead {
		return domain.CheckoutResponse{}, domain.ErrInvalidTarget
	}
	if req.TargetID == 0 {
		return domain.CheckoutResponse{}, domain.ErrInvalidTarget
	}

	catalog := s.catalog.Get()
	point, ok := catalog.FindByCode(req.ServiceCode)
	if !ok {
		return domain.CheckoutResponse{}, domain.ErrUnknownService
	}

	topic := req.Topic
	if topic == "" {
		switch req.TargetType {
		case domain.TargetProject:
			project, err := s.projectRepo.FindByID(ctx, s.db, req.TargetID)
			if err != nil {
				return domain.CheckoutResponse{}, err
			}
			if project == nil {
				return domain.CheckoutResponse{}, projectdomain.ErrProjectNotFound
			}
			topic = project.Topic
		case domain.TargetLead:
			lead, err := s.projectRepo.FindLeadByID(ctx, s.db, req.TargetID)
			if err != nil {
				return domain.CheckoutResponse{}, err
			}
			if lead == nil {
				return domain.CheckoutResponse{}, projectdomain.ErrLeadNotFound
			}
			topic = lead.Topic
			if req.Email == "" {
				req.Email = lead.Email
			}
		}
	}

	now := s.clock.Now()
	reference := NewReference(topic)
	attempt := domain.PaymentAttempt{
		ID:         s.genID.Generate(),
		Reference:  reference,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Amount:     point.Amount,
		Currency:   catalog.Currency,
		Status:     domain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &attempt); err != nil {
		return domain.CheckoutResponse{}, err
	}

	metadata := checkoutMetadata(req)
	authURL, err := s.gateway.Initialize(ctx, req.Email, point.Amount, reference, s.cfg.Paystack.CallbackURL, metadata)
	if err != nil {
		s.log.Warn("gateway initialize failed",
			zap.String("reference", reference),
			zap.Error(err),
		)
		return domain.CheckoutResponse{}, domain.ErrGatewayInitiate
	}

	s.log.Info("checkout initiated",
		zap.String("reference", reference),
		zap.String("target_type", string(req.TargetType)),
		zap.Int64("amount", point.Amount),
	)
	return domain.CheckoutResponse{AuthorizationURL: authURL, Reference: reference}, nil
}

// Reconcile settles one reference against the gateway's record of it.
// Everything from reservation to the terminal write happens inside a single
// transaction, so a crash can never leave a row stuck in processing.
func (s *Service) Reconcile(ctx context.Context, reference string, trigger string) (domain.Outcome, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReconcileTimeout)
	defer cancel()

	var (
		outcome domain.Outcome
		receipt *notify.Receipt
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, receipt, err = s.reconcileLocked(ctx, tx, reference)
		return err
	})
	if err != nil {
		s.observe(trigger, "error", start)
		return domain.Outcome{}, err
	}

	s.observe(trigger, string(outcome.Kind), start)

	if receipt != nil {
		// The transaction is committed; notification failures stay local.
		s.sink.PaymentSucceeded(ctx, *receipt)
	}
	return outcome, nil
}

func (s *Service) reconcileLocked(ctx context.Context, tx *gorm.DB, reference string) (domain.Outcome, *notify.Receipt, error) {
	now := s.clock.Now()

	reserved, err := s.repo.Reserve(ctx, tx, reference, now)
	if err != nil {
		return domain.Outcome{}, nil, err
	}
	if !reserved {
		attempt, err := s.repo.FindByReference(ctx, tx, reference)
		if err != nil {
			return domain.Outcome{}, nil, err
		}
		if attempt == nil {
			return domain.Outcome{Kind: domain.OutcomeNotFound}, nil, nil
		}
		if attempt.Status.Terminal() {
			echo := domain.Outcome{
				Kind:   domain.OutcomeAlreadyTerminal,
				Status: attempt.Status,
				Reason: attempt.FailureReason,
			}
			if attempt.Status == domain.StatusSuccess {
				if projectID, err := s.resolveProjectID(ctx, tx, attempt); err == nil {
					echo.ProjectID = projectID
				}
			}
			return echo, nil, nil
		}
		// Pending row the update did not match, or a reservation held by a
		// transaction we cannot see yet. Let the caller try again.
		return domain.Outcome{}, nil, domain.ErrReconcileContention
	}

	attempt, err := s.repo.FindByReference(ctx, tx, reference)
	if err != nil {
		return domain.Outcome{}, nil, err
	}
	if attempt == nil {
		return domain.Outcome{Kind: domain.OutcomeNotFound}, nil, nil
	}

	result := s.gateway.Verify(ctx, reference)
	if !result.Success {
		reason := domain.ReasonGatewayDeclined
		if result.Reason == "gateway_unreachable" {
			reason = domain.ReasonGatewayUnreachable
		}
		if err := s.repo.MarkFailed(ctx, tx, reference, reason, result.Raw, now); err != nil {
			return domain.Outcome{}, nil, err
		}
		s.log.Info("payment reconciliation failed",
			zap.String("reference", reference),
			zap.String("reason", reason),
			zap.String("gateway_status", result.Status),
		)
		return domain.Outcome{Kind: domain.OutcomeFailed, Reason: reason}, nil, nil
	}

	if result.Amount != attempt.Amount {
		if err := s.repo.MarkFailed(ctx, tx, reference, domain.ReasonAmountMismatch, result.Raw, now); err != nil {
			return domain.Outcome{}, nil, err
		}
		s.log.Warn("amount mismatch on verified payment",
			zap.String("security_event", "amount_tamper"),
			zap.String("reference", reference),
			zap.Int64("expected_amount", attempt.Amount),
			zap.Int64("verified_amount", result.Amount),
		)
		return domain.Outcome{Kind: domain.OutcomeFailed, Reason: domain.ReasonAmountMismatch}, nil, nil
	}

	meta := entitlement.DecodeMetadata(result.Metadata)
	project, email, err := s.resolveTarget(ctx, tx, attempt, now)
	if err != nil {
		return domain.Outcome{}, nil, err
	}
	if result.Email != "" {
		email = result.Email
	}

	catalog := s.catalog.Get()
	patch := entitlement.Resolve(catalog, attempt.Amount, meta, project)
	if err := s.projectRepo.ApplyPatch(ctx, tx, project.ID, patch, now); err != nil {
		return domain.Outcome{}, nil, err
	}
	if err := s.repo.MarkSucceeded(ctx, tx, reference, result.Raw, now); err != nil {
		return domain.Outcome{}, nil, err
	}

	s.log.Info("payment reconciled",
		zap.String("reference", reference),
		zap.Int64("project_id", int64(project.ID)),
		zap.Int64("amount", attempt.Amount),
	)

	service := string(patch.Mode)
	if point, ok := catalog.FindByAmount(attempt.Amount); ok {
		service = point.Label
	}
	receipt := &notify.Receipt{
		Reference: reference,
		Email:     email,
		Topic:     project.Topic,
		Service:   service,
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
		PaidAt:    now,
	}
	return domain.Outcome{Kind: domain.OutcomeSucceeded, ProjectID: project.ID}, receipt, nil
}

// resolveTarget returns the project an attempt pays for, synthesizing one
// from the lead on first settlement.
func (s *Service) resolveTarget(ctx context.Context, tx *gorm.DB, attempt *domain.PaymentAttempt, now time.Time) (*projectdomain.Project, string, error) {
	switch attempt.TargetType {
	case domain.TargetProject:
		project, err := s.projectRepo.FindByID(ctx, tx, attempt.TargetID)
		if err != nil {
			return nil, "", err
		}
		if project == nil {
			return nil, "", projectdomain.ErrProjectNotFound
		}
		return project, "", nil

	case domain.TargetLead:
		project, err := s.projectRepo.FindByLeadID(ctx, tx, attempt.TargetID)
		if err != nil {
			return nil, "", err
		}
		lead, err := s.projectRepo.FindLeadByID(ctx, tx, attempt.TargetID)
		if err != nil {
			return nil, "", err
		}
		if lead == nil {
			return nil, "", projectdomain.ErrLeadNotFound
		}
		if project != nil {
			return project, lead.Email, nil
		}

		leadID := lead.ID
		created := &projectdomain.Project{
			ID:        s.genID.Generate(),
			LeadID:    &leadID,
			UserID:    lead.UserID,
			Topic:     lead.Topic,
			Mode:      projectdomain.ModeSelfService,
			Status:    projectdomain.StatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.projectRepo.Insert(ctx, tx, created); err != nil {
			if !pkgdb.IsDuplicateKeyErr(err) {
				return nil, "", err
			}
			// Lost the synthesis race; the unique lead_id row is already there.
			project, err = s.projectRepo.FindByLeadID(ctx, tx, attempt.TargetID)
			if err != nil {
				return nil, "", err
			}
			if project == nil {
				return nil, "", projectdomain.ErrProjectNotFound
			}
			return project, lead.Email, nil
		}
		if err := s.projectRepo.MarkLeadConverted(ctx, tx, lead.ID, created.ID, now); err != nil {
			return nil, "", err
		}
		s.metrics.ObserveProjectCreated()
		return created, lead.Email, nil

	default:
		return nil, "", domain.ErrInvalidTarget
	}
}

func (s *Service) resolveProjectID(ctx context.Context, tx *gorm.DB, attempt *domain.PaymentAttempt) (snowflake.ID, error) {
	switch attempt.TargetType {
	case domain.TargetProject:
		return attempt.TargetID, nil
	case domain.TargetLead:
		project, err := s.projectRepo.FindByLeadID(ctx, tx, attempt.TargetID)
		if err != nil || project == nil {
			return 0, err
		}
		return project.ID, nil
	default:
		return 0, nil
	}
}

func (s *Service) observe(trigger, outcome string, start time.Time) {
	s.metrics.ObserveReconcile(trigger, outcome, time.Since(start))
}

func checkoutMetadata(req domain.CheckoutRequest) []byte {
	meta := struct {
		ProjectID string `json:"project_id,omitempty"`
		LeadID    string `json:"lead_id,omitempty"`
		Service   string `json:"service,omitempty"`
	}{Service: req.ServiceCode}

	switch req.TargetType {
	case domain.TargetLead:
		meta.LeadID = req.TargetID.String()
	default:
		meta.ProjectID = req.TargetID.String()
	}

	encoded, _ := json.Marshal(meta)
	return encoded
}

// NewReference builds a globally unique payment reference with a readable
// topic prefix: letters and digits only, lowercased, capped, then a ULID.
func NewReference(topic string) string {
	var prefix strings.Builder
	for _, r := range strings.ToLower(topic) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			prefix.WriteRune(r)
		}
		if prefix.Len() >= 12 {
			break
		}
	}
	if prefix.Len() == 0 {
		prefix.WriteString("pay")
	}
	return prefix.String() + "-" + strings.ToLower(ulid.Make().String())
}
