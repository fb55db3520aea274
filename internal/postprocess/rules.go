package postprocess

import (
	"fmt"

	"github.com/ppiankov/assignparse/internal/model"
)

// ValidateRules checks that every rule names real record fields.
func ValidateRules(rules []model.Rule) error {
	for i, r := range rules {
		if _, ok := model.FieldByName(r.Field); !ok {
			return model.ConfigError("postprocess.rules", fmt.Sprintf("rule %d: unknown field %q", i, r.Field), nil)
		}
		if _, ok := model.FieldByName(r.ConditionField); !ok {
			return model.ConfigError("postprocess.rules", fmt.Sprintf("rule %d: unknown condition field %q", i, r.ConditionField), nil)
		}
	}
	return nil
}

// ApplyRules applies rules to rec in order and returns how many fired.
// Later rules see the effects of earlier ones. Rules naming unknown fields
// are skipped.
func ApplyRules(rec *model.Record, rules []model.Rule) int {
	fired := 0
	for _, r := range rules {
		cond, ok := model.FieldByName(r.ConditionField)
		if !ok {
			continue
		}
		target, ok := model.FieldByName(r.Field)
		if !ok {
			continue
		}
		if cond.Get(rec) == r.ConditionValue {
			target.Set(rec, r.ActionValue)
			fired++
		}
	}
	return fired
}
