package webhooks

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/studhome/studhome-backend/api/responses"
	"github.com/studhome/studhome-backend/internal/reconcile"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

// The gateway payload carries more fields than these; unknown ones are
// ignored rather than rejected since the provider adds fields over time.
type campayEvent struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Operator  string `json:"operator"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// CamPay handles gateway push notifications. Malformed payloads get 400,
// unknown references 404, and anything the service can match gets 200 so the
// gateway stops retrying. A reservation conflict is not a delivery failure;
// the outcome stays recorded and the response is still 200.
func CamPay(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}

		var event campayEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}
		if strings.TrimSpace(event.Reference) == "" || strings.TrimSpace(event.Status) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference and status are required"))
			return
		}

		outcome, err := svc.HandleWebhook(r.Context(), event.Reference, event.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := map[string]any{
			"reference": event.Reference,
			"status":    string(outcome.Transaction.Status),
			"applied":   outcome.Applied,
		}
		if outcome.Replay {
			body["replay"] = true
		}
		responses.WriteSuccess(w, body)
	}
}
