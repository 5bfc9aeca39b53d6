package handler

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/infrastructure/webhook"
	"github.com/finflow/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries the provider's HMAC signature
const SignatureHeader = "X-Signature"

// WebhookHandler receives signed notifications from the bank and the
// e-signature provider. Verification runs over the exact raw body bytes
// before any JSON decoding.
type WebhookHandler struct {
	BaseHandler
	payments          *workflow.PaymentReceivedService
	signatures        *workflow.QuoteSignedService
	paymentVerifier   *webhook.Verifier
	signatureVerifier *webhook.Verifier
	logger            *zap.Logger
}

// NewWebhookHandler creates a WebhookHandler
func NewWebhookHandler(
	payments *workflow.PaymentReceivedService,
	signatures *workflow.QuoteSignedService,
	paymentVerifier *webhook.Verifier,
	signatureVerifier *webhook.Verifier,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		payments:          payments,
		signatures:        signatures,
		paymentVerifier:   paymentVerifier,
		signatureVerifier: signatureVerifier,
		logger:            logger,
	}
}

// ReceivePayment handles POST /webhooks/payments
func (h *WebhookHandler) ReceivePayment(c *gin.Context) {
	body, ok := h.verifiedBody(c, h.paymentVerifier)
	if !ok {
		return
	}

	var notification workflow.PaymentNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, "Malformed payment notification")
		return
	}
	if notification.TransactionID == "" {
		h.Error(c, 400, dto.ErrCodeValidation, "transaction_id is required")
		return
	}

	result, err := h.payments.Process(c.Request.Context(), notification)
	if err != nil {
		h.logger.Error("payment webhook failed",
			zap.String("transaction_id", notification.TransactionID),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReceiveSignature handles POST /webhooks/signatures
func (h *WebhookHandler) ReceiveSignature(c *gin.Context) {
	body, ok := h.verifiedBody(c, h.signatureVerifier)
	if !ok {
		return
	}

	var event workflow.SignatureEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, "Malformed signature event")
		return
	}
	if event.QuoteNumber == "" {
		h.Error(c, 400, dto.ErrCodeValidation, "quote_number is required")
		return
	}

	result, err := h.signatures.Process(c.Request.Context(), event)
	if err != nil {
		h.logger.Error("signature webhook failed",
			zap.String("quote_number", event.QuoteNumber),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// verifiedBody reads the raw body and checks the provider signature.
// A failed verification answers 401 without touching any record.
func (h *WebhookHandler) verifiedBody(c *gin.Context, verifier *webhook.Verifier) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return nil, false
	}

	if err := verifier.Verify(body, c.GetHeader(SignatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected",
			zap.String("path", c.Request.URL.Path))
		h.Unauthorized(c, "Signature missing or invalid")
		return nil, false
	}
	return body, true
}
