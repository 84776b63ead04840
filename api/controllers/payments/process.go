package payments

import (
	"context"
	"errors"
	"net/http"

	"github.com/jgstylez/blackowndemand-backend/api/responses"
	"github.com/jgstylez/blackowndemand-backend/api/validators"
	paymentsvc "github.com/jgstylez/blackowndemand-backend/internal/payments"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
)

// PaymentService describes the payment methods used by the HTTP controller.
type PaymentService interface {
	Process(ctx context.Context, req paymentsvc.PaymentRequest) (*paymentsvc.PaymentDetails, error)
}

// Process handles POST /api/v1/payments/process.
func Process(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req paymentsvc.PaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		details, err := svc.Process(ctx, req)
		if err != nil {
			var decline *paymentsvc.DeclineError
			if errors.As(err, &decline) {
				// Declines keep the gateway's own code and text so the UI can
				// pick a specific retry hint.
				responses.WriteJSON(w, http.StatusBadRequest, responses.ErrorBody{
					Error:   decline.Message,
					Code:    decline.Code,
					Details: decline.ResponseText,
				})
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"decline_code": decline.Code,
						"decline_text": decline.ResponseText,
					}), "payments.declined")
				}
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, details)
	}
}
