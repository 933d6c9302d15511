package detector

import (
	"fmt"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// SecurityDetector scans for sensitive-operation keywords (access, login,
// storage, transmission) and raises a risk when no protective term from the
// rule's guard list co-occurs in the same requirement.
type SecurityDetector struct {
	base
}

// NewSecurity builds the security detector over cfg.
func NewSecurity(cfg *rules.Config) Detector {
	return &SecurityDetector{base: newBase(cfg, model.CategorySecurity, "Security Detector")}
}

// securityChecks names the trigger/guard sub-rules and how their findings
// are described.
var securityChecks = []struct {
	rule        string
	description string
	suggestion  string
}{
	{
		rule:        "missing_authentication",
		description: "User access feature %q mentioned without authentication requirements",
		suggestion:  "Add authentication requirements (e.g., 'users must authenticate before accessing')",
	},
	{
		rule:        "missing_authorization",
		description: "Administrative action %q mentioned without authorization requirements",
		suggestion:  "Add authorization requirements (e.g., 'only authorized administrators may perform this action')",
	},
	{
		rule:        "missing_data_protection",
		description: "Data storage %q mentioned without protection requirements",
		suggestion:  "Add data protection requirements (e.g., 'data must be encrypted at rest')",
	},
	{
		rule:        "insecure_communication",
		description: "Data transmission %q mentioned without transport security requirements",
		suggestion:  "Require a secure channel (e.g., 'transmitted over TLS')",
	},
}

func (d *SecurityDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	var risks []model.Risk
	for _, check := range securityChecks {
		rule := d.rule(check.rule)
		if len(rule.Triggers) == 0 {
			continue
		}
		guarded := d.containsAny(req.Text, rule.RequiredWith)
		for _, trigger := range d.containsKeywords(req.Text, rule.Triggers) {
			if guarded {
				continue
			}
			risks = append(risks, d.newRisk(ids, req, d.severityFor(rule),
				fmt.Sprintf(check.description, trigger),
				trigger,
				check.suggestion,
			))
		}
	}
	return risks, nil
}
