package commission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-hq/vendora-backend/pkg/db/models"
	"github.com/vendora-hq/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/vendora-backend/pkg/errors"
)

func newTestRulesService(t *testing.T, repo Repository) RulesService {
	t.Helper()
	svc, err := NewRulesService(repo)
	if err != nil {
		t.Fatalf("rules service setup: %v", err)
	}
	return svc
}

func TestCreateRule_PersistsNormalizedRule(t *testing.T) {
	var created *models.CommissionRule
	repo := &fakeRules{
		createFn: func(_ context.Context, rule *models.CommissionRule) error {
			created = rule
			return nil
		},
	}
	svc := newTestRulesService(t, repo)

	targetID := uuid.New()
	rule, err := svc.CreateRule(context.Background(), CreateRuleInput{
		AppliesTo: "category",
		TargetID:  &targetID,
		Rate:      "7.5",
		Priority:  10,
		Reason:    "summer sale",
	})
	if err != nil {
		t.Fatalf("CreateRule error: %v", err)
	}
	if created == nil {
		t.Fatal("expected repo create to be called")
	}
	if rule.AppliesTo != enums.RuleAppliesToCategory {
		t.Fatalf("expected category scope, got %s", rule.AppliesTo)
	}
	if !rule.Rate.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("expected rate 7.5, got %s", rule.Rate)
	}
	if !rule.IsActive {
		t.Fatal("new rules must start active")
	}
}

func TestCreateRule_ValidationFailures(t *testing.T) {
	svc := newTestRulesService(t, &fakeRules{})
	targetID := uuid.New()
	from := time.Now()
	until := from.Add(-time.Hour)

	cases := []struct {
		name  string
		input CreateRuleInput
	}{
		{"missing reason", CreateRuleInput{AppliesTo: "global", Rate: "5"}},
		{"unknown scope", CreateRuleInput{AppliesTo: "warehouse", Rate: "5", Reason: "x"}},
		{"scoped rule without target", CreateRuleInput{AppliesTo: "product", Rate: "5", Reason: "x"}},
		{"global rule with target", CreateRuleInput{AppliesTo: "global", TargetID: &targetID, Rate: "5", Reason: "x"}},
		{"malformed rate", CreateRuleInput{AppliesTo: "global", Rate: "five", Reason: "x"}},
		{"negative rate", CreateRuleInput{AppliesTo: "global", Rate: "-1", Reason: "x"}},
		{"rate above hundred", CreateRuleInput{AppliesTo: "global", Rate: "100.01", Reason: "x"}},
		{"inverted window", CreateRuleInput{AppliesTo: "global", Rate: "5", Reason: "x", ValidFrom: &from, ValidUntil: &until}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateRule(context.Background(), tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateRule_AcceptsBoundaryRates(t *testing.T) {
	svc := newTestRulesService(t, &fakeRules{})
	for _, rate := range []string{"0", "100"} {
		if _, err := svc.CreateRule(context.Background(), CreateRuleInput{
			AppliesTo: "global",
			Rate:      rate,
			Reason:    "boundary",
		}); err != nil {
			t.Fatalf("rate %s should be accepted: %v", rate, err)
		}
	}
}

func TestDeactivateRule_Idempotent(t *testing.T) {
	id := uuid.New()
	repo := &fakeRules{
		deactivateFn: func(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil },
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.CommissionRule, error) {
			return &models.CommissionRule{ID: id, IsActive: false}, nil
		},
	}
	svc := newTestRulesService(t, repo)

	if err := svc.DeactivateRule(context.Background(), id); err != nil {
		t.Fatalf("deactivating an already-inactive rule must succeed: %v", err)
	}
}

func TestDeactivateRule_NotFound(t *testing.T) {
	repo := &fakeRules{
		deactivateFn: func(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil },
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*models.CommissionRule, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestRulesService(t, repo)

	err := svc.DeactivateRule(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeactivateRule_RequiresID(t *testing.T) {
	svc := newTestRulesService(t, &fakeRules{})
	if err := svc.DeactivateRule(context.Background(), uuid.Nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for nil id, got %v", err)
	}
}
