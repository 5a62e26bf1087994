package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
)

// RulesService exposes the admin surface over commission rules.
type RulesService interface {
	CreateRule(ctx context.Context, input CreateRuleInput) (*models.CommissionRule, error)
	ListRules(ctx context.Context, filters ListRulesFilters) ([]models.CommissionRule, error)
	DeactivateRule(ctx context.Context, id uuid.UUID) error
}

type rulesService struct {
	repo     Repository
	validate *validator.Validate
}

// NewRulesService wires the rule admin service.
func NewRulesService(repo Repository) (RulesService, error) {
	if repo == nil {
		return nil, fmt.Errorf("rules repository required")
	}
	return &rulesService{
		repo:     repo,
		validate: validator.New(),
	}, nil
}

func (s *rulesService) CreateRule(ctx context.Context, input CreateRuleInput) (*models.CommissionRule, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rule input")
	}

	appliesTo, err := enums.ParseRuleAppliesTo(input.AppliesTo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rule scope")
	}
	if appliesTo.RequiresTarget() && input.TargetID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target id required for non-global rules")
	}
	if !appliesTo.RequiresTarget() && input.TargetID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "global rules cannot carry a target id")
	}

	rate, err := decimal.NewFromString(input.Rate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rate")
	}
	if rate.IsNegative() || rate.GreaterThan(oneHundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate must be between 0 and 100")
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until precedes valid_from")
	}

	rule := &models.CommissionRule{
		AppliesTo:  appliesTo,
		TargetID:   input.TargetID,
		Rate:       rate,
		Priority:   input.Priority,
		IsActive:   true,
		ValidFrom:  input.ValidFrom,
		ValidUntil: input.ValidUntil,
		Reason:     input.Reason,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rule")
	}
	return rule, nil
}

func (s *rulesService) ListRules(ctx context.Context, filters ListRulesFilters) ([]models.CommissionRule, error) {
	rules, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rules")
	}
	return rules, nil
}

func (s *rulesService) DeactivateRule(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule id required")
	}
	affected, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate rule")
	}
	if affected == 0 {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rule not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rule")
		}
		// Already inactive; deactivation is idempotent.
	}
	return nil
}
