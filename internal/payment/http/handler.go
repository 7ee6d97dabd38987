package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"github.com/lumabee/tutor-booking-backend/internal/auth"
	"github.com/lumabee/tutor-booking-backend/internal/payment"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/request"
	"github.com/lumabee/tutor-booking-backend/internal/pkg/response"
)

// maxWebhookBody bounds the webhook payload size.
const maxWebhookBody = 64 << 10

type Handler struct {
	service       payment.Service
	webhookSecret string
	logger        *zap.Logger
}

func NewHandler(service payment.Service, webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		service:       service,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// Checkout opens a provider checkout for the booking.
func (h *Handler) Checkout(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	sess, url, err := h.service.InitiateCheckout(c.Request.Context(),
		req.ID, auth.GetUserID(c), auth.GetUserEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, CheckoutResponse{
		Session:     NewSessionResponse(sess),
		CheckoutURL: url,
	})
}

// Verify reconciles a checkout session against the provider, covering
// the success redirect landing before (or instead of) the webhook.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	sess, err := h.service.VerifyCheckout(c.Request.Context(), req.SessionID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewSessionResponse(sess))
}

// Webhook receives Stripe events. The signature is verified against the
// endpoint secret before anything is trusted. Events we do not care
// about are acknowledged so Stripe stops redelivering them.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read request body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	evt, ok := h.normalizeEvent(event)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.service.HandleEvent(c.Request.Context(), evt); err != nil {
		// Non-2xx makes Stripe retry the delivery later.
		h.logger.Error("handle provider event failed",
			zap.String("provider_event_id", evt.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// normalizeEvent maps a Stripe event onto our provider-neutral event.
func (h *Handler) normalizeEvent(event stripe.Event) (payment.Event, bool) {
	var kind payment.EventType
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		kind = payment.EventCheckoutCompleted
	case "checkout.session.async_payment_failed":
		kind = payment.EventPaymentFailed
	case "checkout.session.expired":
		kind = payment.EventCheckoutExpired
	default:
		return payment.Event{}, false
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Warn("unmarshal stripe event payload failed",
			zap.String("provider_event_id", event.ID),
			zap.Error(err),
		)
		return payment.Event{}, false
	}

	// A completed checkout with an async payment method is not paid yet;
	// the async_payment_succeeded event follows once the charge settles.
	if kind == payment.EventCheckoutCompleted && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return payment.Event{}, false
	}

	return payment.Event{
		ID:          event.ID,
		Type:        kind,
		SessionID:   sess.ID,
		AmountCents: sess.AmountTotal,
		Payload:     event.Data.Raw,
	}, true
}
