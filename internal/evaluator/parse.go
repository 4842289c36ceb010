package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractedProfile carries candidate facts the provider read from the CV.
type ExtractedProfile struct {
	FullName          string
	Email             string
	Phone             string
	YearsOfExperience *int
	EducationLevel    string
	Skills            []string
}

type StructuredEvaluation struct {
	OverallScore    float64
	ExperienceScore float64
	SkillsScore     float64
	EducationScore  float64
	LocationScore   float64

	Summary             string
	PositiveSignals     []string
	RiskSignals         []string
	ExperienceRationale string
	SkillsRationale     string
	EducationRationale  string
	MatchReasoning      string

	Profile     *ExtractedProfile
	// Adjustments lists bound corrections made while parsing.
	Adjustments []string
	Attempts    int
}

// Both the flat layout and the nested "analysis" layout are accepted.
var (
	summaryPaths    = []string{"summary", "analysis.summary"}
	positivePaths   = []string{"positive_signals", "analysis.green_flags", "green_flags"}
	riskPaths       = []string{"risk_signals", "analysis.red_flags", "red_flags"}
	experiencePaths = []string{"experience_rationale", "analysis.experience_analysis"}
	skillsPaths     = []string{"skills_rationale", "analysis.skills_analysis"}
	educationPaths  = []string{"education_rationale", "analysis.education_analysis"}
	matchPaths      = []string{"match_reasoning", "analysis.match_reasoning"}
	profilePaths    = []string{"extracted_profile", "extracted_info"}
)

func parseEvaluation(raw string) (*StructuredEvaluation, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("response is empty")
	}
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	root := gjson.Parse(cleaned)
	if !root.IsObject() {
		return nil, fmt.Errorf("response is not a JSON object")
	}

	eval := &StructuredEvaluation{}
	scores := []struct {
		name string
		dst  *float64
	}{
		{"overall_score", &eval.OverallScore},
		{"experience_score", &eval.ExperienceScore},
		{"skills_score", &eval.SkillsScore},
		{"education_score", &eval.EducationScore},
		{"location_score", &eval.LocationScore},
	}
	for _, s := range scores {
		v, adjustment, err := readScore(root, s.name)
		if err != nil {
			return nil, err
		}
		*s.dst = v
		if adjustment != "" {
			eval.Adjustments = append(eval.Adjustments, adjustment)
		}
	}

	summary := first(root, summaryPaths)
	if summary.Type != gjson.String || strings.TrimSpace(summary.String()) == "" {
		return nil, fmt.Errorf("summary is required")
	}
	eval.Summary = strings.TrimSpace(summary.String())

	var err error
	if eval.PositiveSignals, err = readStrings(root, positivePaths, "positive_signals"); err != nil {
		return nil, err
	}
	if eval.RiskSignals, err = readStrings(root, riskPaths, "risk_signals"); err != nil {
		return nil, err
	}

	eval.ExperienceRationale = optionalString(root, experiencePaths)
	eval.SkillsRationale = optionalString(root, skillsPaths)
	eval.EducationRationale = optionalString(root, educationPaths)
	eval.MatchReasoning = optionalString(root, matchPaths)

	if p := first(root, profilePaths); p.IsObject() {
		eval.Profile = parseProfile(p)
	}
	return eval, nil
}

func readScore(root gjson.Result, name string) (float64, string, error) {
	r := root.Get(name)
	if !r.Exists() || r.Type == gjson.Null {
		return 0, "", fmt.Errorf("%s is required", name)
	}

	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, "", fmt.Errorf("%s is not a number", name)
		}
		v = f
	default:
		return 0, "", fmt.Errorf("%s is not a number", name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "", fmt.Errorf("%s is not a finite number", name)
	}

	switch {
	case v < 0:
		return 0, fmt.Sprintf("%s clamped from %g to 0", name, v), nil
	case v > 100:
		return 100, fmt.Sprintf("%s clamped from %g to 100", name, v), nil
	}
	return v, "", nil
}

func readStrings(root gjson.Result, paths []string, name string) ([]string, error) {
	r := first(root, paths)
	if !r.Exists() {
		return nil, fmt.Errorf("%s is required", name)
	}
	if !r.IsArray() {
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}
	out := []string{}
	for _, item := range r.Array() {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("%s must be an array of strings", name)
		}
		if s := strings.TrimSpace(item.Str); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func parseProfile(p gjson.Result) *ExtractedProfile {
	profile := &ExtractedProfile{
		FullName:       nullableString(p.Get("full_name")),
		Email:          nullableString(p.Get("email")),
		Phone:          nullableString(p.Get("phone")),
		EducationLevel: nullableString(p.Get("education_level")),
	}
	if years := p.Get("years_of_experience"); years.Type == gjson.Number && years.Num >= 0 {
		n := int(math.Round(years.Num))
		profile.YearsOfExperience = &n
	}
	if skills := p.Get("skills"); skills.IsArray() {
		profile.Skills = []string{}
		for _, s := range skills.Array() {
			if v := strings.TrimSpace(s.String()); v != "" && s.Type == gjson.String {
				profile.Skills = append(profile.Skills, v)
			}
		}
	}
	return profile
}

func first(root gjson.Result, paths []string) gjson.Result {
	for _, path := range paths {
		if r := root.Get(path); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func optionalString(root gjson.Result, paths []string) string {
	r := first(root, paths)
	if r.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(r.Str)
}

// nullableString treats JSON null and the literal "null" as absent.
func nullableString(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	s := strings.TrimSpace(r.Str)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}
