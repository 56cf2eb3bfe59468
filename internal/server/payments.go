package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectnest/projectnest/internal/gateway/paystack"
	"github.com/projectnest/projectnest/internal/identity"
	paymentdomain "github.com/projectnest/projectnest/internal/payment/domain"
	"go.uber.org/zap"
)

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// HandlePaystackWebhook settles a payment announced by the gateway. The
// signature check runs against the raw bytes before anything is parsed.
func (s *Server) HandlePaystackWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := c.GetHeader(paystack.SignatureHeader)
	if !s.gateway.VerifySignature(payload, signature) {
		s.metrics.ObserveWebhookEvent("unknown", "bad_signature")
		s.log.Warn("webhook signature rejected",
			zap.String("security_event", "webhook_bad_signature"),
			zap.String("remote_addr", c.ClientIP()),
			zap.Bool("signature_present", strings.TrimSpace(signature) != ""),
		)
		c.JSON(http.StatusUnauthorized, errorResponse{Error: errorPayload{
			Type:    "unauthorized",
			Message: "invalid signature",
		}})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil || strings.TrimSpace(event.Event) == "" {
		s.metrics.ObserveWebhookEvent("unknown", "malformed")
		AbortWithError(c, invalidRequestError())
		return
	}

	if event.Event != "charge.success" {
		s.metrics.ObserveWebhookEvent(event.Event, "ignored")
		s.log.Info("webhook event ignored", zap.String("event", event.Event))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	if strings.TrimSpace(event.Data.Reference) == "" {
		s.metrics.ObserveWebhookEvent(event.Event, "malformed")
		AbortWithError(c, invalidRequestError())
		return
	}

	// The gateway has already charged the customer; finish the settlement
	// even if it drops the connection mid-request.
	ctx := context.WithoutCancel(c.Request.Context())
	outcome, err := s.paymentSvc.Reconcile(ctx, event.Data.Reference, "webhook")
	if err != nil {
		if errors.Is(err, paymentdomain.ErrReconcileContention) {
			// Another delivery of the same event is settling it right now.
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		AbortWithError(c, err)
		return
	}

	if outcome.Kind == paymentdomain.OutcomeNotFound {
		// Unknown references stay 200: a non-2xx only invites retry storms.
		s.metrics.ObserveWebhookEvent(event.Event, "unknown_reference")
		s.log.Warn("webhook for unknown reference", zap.String("reference", event.Data.Reference))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	s.metrics.ObserveWebhookEvent(event.Event, string(outcome.Kind))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type verifyRequest struct {
	Reference string `json:"reference"`
}

type verifyResponse struct {
	Success   bool   `json:"success"`
	ProjectID string `json:"projectId,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleVerifyPayment is the client-initiated settlement path. Failure
// details stay internal: callers only learn that verification failed.
func (s *Server) HandleVerifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reference) == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	outcome, err := s.paymentSvc.Reconcile(ctx, strings.TrimSpace(req.Reference), "verify")
	if err != nil {
		if errors.Is(err, paymentdomain.ErrReconcileContention) {
			c.JSON(http.StatusOK, verifyResponse{Success: false, Message: "payment verification failed"})
			return
		}
		AbortWithError(c, err)
		return
	}

	switch {
	case outcome.Kind == paymentdomain.OutcomeNotFound:
		c.JSON(http.StatusNotFound, verifyResponse{Success: false, Message: "payment verification failed"})
	case outcome.Paid():
		c.JSON(http.StatusOK, verifyResponse{Success: true, ProjectID: outcome.ProjectID.String()})
	default:
		c.JSON(http.StatusOK, verifyResponse{Success: false, Message: "payment verification failed"})
	}
}

type checkoutRequest struct {
	TargetType  string `json:"targetType"`
	TargetID    string `json:"targetId"`
	ServiceCode string `json:"serviceCode"`
	Topic       string `json:"topic"`
}

func (s *Server) HandleCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, ok := identity.UserFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	targetID, err := parseID(req.TargetID)
	if err != nil {
		AbortWithError(c, newValidationError("targetId", "invalid_id", "invalid target id"))
		return
	}

	resp, err := s.paymentSvc.InitiateCheckout(c.Request.Context(), paymentdomain.CheckoutRequest{
		TargetType:  paymentdomain.TargetType(strings.TrimSpace(req.TargetType)),
		TargetID:    targetID,
		ServiceCode: strings.TrimSpace(req.ServiceCode),
		Email:       user.Email,
		Topic:       strings.TrimSpace(req.Topic),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
