package detector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/avendel/reqstress/internal/model"
	"github.com/avendel/reqstress/internal/rules"
)

// specificsPattern matches digits or time/percentage units, which count as
// concrete detail near an action verb.
var specificsPattern = regexp.MustCompile(`\d+|seconds?|minutes?|hours?|days?|%`)

// detailIndicators are words that qualify how or when an action happens.
var detailIndicators = []string{"when", "where", "how", "within", "after", "before", "if", "unless", "during"}

// specificActors are phrasings that make an actor token concrete enough.
var specificActors = []string{
	"authenticated user", "logged-in user", "registered user",
	"system administrator", "admin user", "superuser",
	"external user", "guest user", "anonymous user",
	"api client", "external system", "third-party",
}

// MissingDetailDetector flags incomplete leading phrases, action verbs that
// lack qualifying context, and unspecified actor tokens.
type MissingDetailDetector struct {
	base
}

// NewMissingDetail builds the missing-detail detector over cfg.
func NewMissingDetail(cfg *rules.Config) Detector {
	return &MissingDetailDetector{base: newBase(cfg, model.CategoryMissingDetail, "Missing Detail Detector")}
}

func (d *MissingDetailDetector) Detect(req model.Requirement, ids *IDGen) ([]model.Risk, error) {
	if d.skip(req) {
		return nil, nil
	}

	var risks []model.Risk
	risks = append(risks, d.detectIncompletePhrases(req, ids)...)
	risks = append(risks, d.detectMissingSpecifications(req, ids)...)
	risks = append(risks, d.detectUnspecifiedActors(req, ids)...)
	return risks, nil
}

// detectIncompletePhrases flags requirements that start with a configured
// leading phrase and then end with almost nothing after it.
func (d *MissingDetailDetector) detectIncompletePhrases(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("incomplete_phrases")
	text := d.normalize(req.Text)

	var risks []model.Risk
	for _, pattern := range rule.Patterns {
		p := d.normalize(pattern)
		if p == "" || !strings.HasPrefix(text, p) {
			continue
		}
		remaining := strings.TrimSpace(text[len(p):])
		if len(remaining) < 10 {
			risks = append(risks, d.newRisk(ids, req, d.severityFor(rule),
				"Incomplete phrase detected - requirement ends without specifying what should be done",
				pattern,
				fmt.Sprintf("Complete the requirement by specifying what the system should do after %q", pattern),
			))
		}
	}
	return risks
}

// detectMissingSpecifications flags action verbs with no qualifying context
// (detail indicator or concrete number/unit) within a small window.
func (d *MissingDetailDetector) detectMissingSpecifications(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("missing_specifications")

	var risks []model.Risk
	for _, action := range d.containsKeywords(req.Text, rule.Keywords) {
		if !d.lacksContext(req.Text, action) {
			continue
		}
		risks = append(risks, d.newRisk(ids, req, d.severityFor(rule),
			fmt.Sprintf("Action %q lacks sufficient detail about how it should be performed", action),
			action,
			fmt.Sprintf("Specify how %q should be performed (e.g., when, where, under what conditions)", action),
		))
	}
	return risks
}

// detectUnspecifiedActors flags actor tokens unless the text names a
// concrete actor phrase containing the token.
func (d *MissingDetailDetector) detectUnspecifiedActors(req model.Requirement, ids *IDGen) []model.Risk {
	rule := d.rule("unspecified_actors")

	var risks []model.Risk
	for _, actor := range d.containsKeywords(req.Text, rule.Keywords) {
		if !d.actorUnspecified(req.Text, actor) {
			continue
		}
		risks = append(risks, d.newRisk(ids, req, d.severityFor(rule),
			fmt.Sprintf("Actor %q is unspecified or ambiguous", actor),
			actor,
			fmt.Sprintf("Specify which %q (e.g., 'authenticated users', 'system administrators')", actor),
		))
	}
	return risks
}

// lacksContext inspects a 25-character window around the action for detail
// indicators or concrete specifics.
func (d *MissingDetailDetector) lacksContext(text, action string) bool {
	lower := strings.ToLower(text)
	pos := strings.Index(lower, strings.ToLower(action))
	if pos < 0 {
		return true
	}
	start := pos - 25
	if start < 0 {
		start = 0
	}
	end := pos + len(action) + 25
	if end > len(text) {
		end = len(text)
	}
	window := lower[start:end]

	for _, ind := range detailIndicators {
		if strings.Contains(window, ind) {
			return false
		}
	}
	return !specificsPattern.MatchString(window)
}

func (d *MissingDetailDetector) actorUnspecified(text, actor string) bool {
	lower := strings.ToLower(text)
	actorLower := strings.ToLower(actor)
	for _, specific := range specificActors {
		if strings.Contains(lower, specific) && strings.Contains(specific, actorLower) {
			return false
		}
	}
	return true
}
