package enums

import "fmt"

// RuleAppliesTo scopes a commission rule to a product, category,
// vendor, or the whole platform.
type RuleAppliesTo string

const (
	RuleAppliesToProduct  RuleAppliesTo = "product"
	RuleAppliesToCategory RuleAppliesTo = "category"
	RuleAppliesToVendor   RuleAppliesTo = "vendor"
	RuleAppliesToGlobal   RuleAppliesTo = "global"
)

// String implements fmt.Stringer.
func (r RuleAppliesTo) String() string {
	return string(r)
}

// IsValid reports whether the value is a known rule scope.
func (r RuleAppliesTo) IsValid() bool {
	switch r {
	case RuleAppliesToProduct,
		RuleAppliesToCategory,
		RuleAppliesToVendor,
		RuleAppliesToGlobal:
		return true
	}
	return false
}

// RequiresTarget reports whether rules with this scope must carry a target id.
func (r RuleAppliesTo) RequiresTarget() bool {
	return r != RuleAppliesToGlobal
}

// ParseRuleAppliesTo converts raw input into a RuleAppliesTo.
func ParseRuleAppliesTo(value string) (RuleAppliesTo, error) {
	if v := RuleAppliesTo(value); v.IsValid() {
		return v, nil
	}
	return "", fmt.Errorf("invalid rule scope %q", value)
}
