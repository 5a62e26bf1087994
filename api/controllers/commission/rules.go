package commission

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendora-hq/vendora-backend/api/responses"
	"github.com/vendora-hq/vendora-backend/api/validators"
	internalcommission "github.com/vendora-hq/vendora-backend/internal/commission"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
	"github.com/vendora-hq/vendora-backend/pkg/logger"
)

// RuleCreate registers a new commission rule.
func RuleCreate(svc internalcommission.RulesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rules service unavailable"))
			return
		}

		var input internalcommission.CreateRuleInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.CreateRule(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

// RuleList returns rules filtered by scope, target, and active flag.
func RuleList(svc internalcommission.RulesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rules service unavailable"))
			return
		}

		filters, err := buildRuleFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rules, err := svc.ListRules(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

// RuleDeactivate retires a rule. Repeated calls on an already inactive
// rule succeed without effect.
func RuleDeactivate(svc internalcommission.RulesService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rules service unavailable"))
			return
		}

		ruleID, err := parseUUIDParam(r, "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateRule(r.Context(), ruleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

func buildRuleFilters(r *http.Request) (internalcommission.ListRulesFilters, error) {
	filters := internalcommission.ListRulesFilters{}

	if raw := strings.TrimSpace(r.URL.Query().Get("applies_to")); raw != "" {
		appliesTo, err := enums.ParseRuleAppliesTo(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid applies_to filter")
		}
		filters.AppliesTo = &appliesTo
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("target_id")); raw != "" {
		targetID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target_id filter")
		}
		filters.TargetID = &targetID
	}

	filters.ActiveOnly = strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")
	return filters, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
