package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/projectnest/projectnest/internal/observability/metrics"
	"github.com/projectnest/projectnest/internal/providers/discord"
	"github.com/projectnest/projectnest/internal/providers/email"
	"github.com/projectnest/projectnest/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Receipt is the settled-payment summary handed to the sink.
type Receipt struct {
	Reference string
	Email     string
	Topic     string
	Service   string
	Amount    int64
	Currency  string
	PaidAt    time.Time
}

// Sink delivers post-payment notifications. Delivery is best effort: the
// payment is already committed by the time the sink runs, so failures are
// logged and never propagated.
type Sink interface {
	PaymentSucceeded(ctx context.Context, receipt Receipt)
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Email   email.Provider
	Discord discord.Provider
	PDF     pdf.Provider
	Metrics *metrics.Metrics `optional:"true"`
}

type sink struct {
	log     *zap.Logger
	email   email.Provider
	discord discord.Provider
	pdf     pdf.Provider
	metrics *metrics.Metrics
}

func New(p Params) Sink {
	return &sink{
		log:     p.Log.Named("notify"),
		email:   p.Email,
		discord: p.Discord,
		pdf:     p.PDF,
		metrics: p.Metrics,
	}
}

func (s *sink) PaymentSucceeded(ctx context.Context, receipt Receipt) {
	s.sendReceiptEmail(ctx, receipt)
	s.postDiscordAlert(ctx, receipt)
}

func (s *sink) sendReceiptEmail(ctx context.Context, receipt Receipt) {
	if receipt.Email == "" {
		return
	}

	var attachments []email.Attachment
	doc, err := s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		Reference: receipt.Reference,
		Email:     receipt.Email,
		Topic:     receipt.Topic,
		Service:   receipt.Service,
		Amount:    strconv.FormatInt(receipt.Amount, 10),
		Currency:  receipt.Currency,
		DatePaid:  receipt.PaidAt.Format("2 Jan 2006"),
	})
	if err != nil {
		s.log.Warn("receipt pdf generation failed",
			zap.String("reference", receipt.Reference),
			zap.Error(err),
		)
	} else if len(doc) > 0 {
		attachments = append(attachments, email.Attachment{
			Filename:    "receipt-" + receipt.Reference + ".pdf",
			ContentType: "application/pdf",
			Data:        doc,
		})
	}

	body := fmt.Sprintf(
		"<p>Your payment of %s %d for <strong>%s</strong> was received.</p><p>Reference: %s</p>",
		receipt.Currency, receipt.Amount, receipt.Topic, receipt.Reference,
	)
	if err := s.email.SendWithAttachments(ctx, []string{receipt.Email}, "Your ProjectNest receipt", body, attachments); err != nil {
		s.metrics.ObserveNotification("email", "error")
		s.log.Warn("receipt email failed",
			zap.String("reference", receipt.Reference),
			zap.Error(err),
		)
		return
	}
	s.metrics.ObserveNotification("email", "ok")
}

func (s *sink) postDiscordAlert(ctx context.Context, receipt Receipt) {
	message := fmt.Sprintf("Payment received: %s %d for %q (ref %s)",
		receipt.Currency, receipt.Amount, receipt.Topic, receipt.Reference)

	if err := s.discord.PostMessage(ctx, message); err != nil {
		s.metrics.ObserveNotification("discord", "error")
		s.log.Warn("discord alert failed",
			zap.String("reference", receipt.Reference),
			zap.Error(err),
		)
		return
	}
	s.metrics.ObserveNotification("discord", "ok")
}

var Module = fx.Module("notify",
	fx.Provide(New),
)
