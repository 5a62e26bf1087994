package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/vendora-hq/vendora-backend/api/responses"
	internalanalytics "github.com/vendora-hq/vendora-backend/internal/analytics"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

// CommissionSummary aggregates platform commission and payout totals
// over a date range. Defaults to the trailing 30 days.
func CommissionSummary(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		to, err := parseDateQuery(r, "to", time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := parseDateQuery(r, "from", to.AddDate(0, 0, -30))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.PlatformCommissionSummary(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func parseDateQuery(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key+" timestamp")
	}
	return value, nil
}
