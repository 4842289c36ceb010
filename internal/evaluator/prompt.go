package evaluator

import (
	"fmt"
	"strings"
)

// CandidateProfile is what the prompt knows about a candidate.
type CandidateProfile struct {
	FullName          string
	Location          string
	EducationLevel    string
	YearsOfExperience *int
	// Skills is nil when skills were never extracted.
	Skills            []string
	CVText            string
}

type JobProfile struct {
	Title              string
	Description        string
	Requirements       string
	Location           string
	RequiredExperience int
	RequiredSkills     []string
}

const systemPrompt = "You are an expert HR recruiter. You evaluate one candidate against one job opening and answer with a single JSON object only, no prose and no markdown."

const responseSchema = `{
  "overall_score": <number 0-100>,
  "experience_score": <number 0-100>,
  "skills_score": <number 0-100>,
  "education_score": <number 0-100>,
  "location_score": <number 0-100>,
  "summary": "<concise professional summary>",
  "positive_signals": ["<signal>"],
  "risk_signals": ["<signal>"],
  "experience_rationale": "<concise analysis>",
  "skills_rationale": "<concise analysis>",
  "education_rationale": "<concise analysis>",
  "match_reasoning": "<why good or bad fit>",
  "extracted_profile": {
    "full_name": "<string or null>",
    "email": "<email or null>",
    "phone": "<string or null>",
    "years_of_experience": <number or null>,
    "education_level": "<Bachelor, Master, PhD, High School or null>",
    "skills": ["<skill>"]
  }
}`

func buildPrompt(c CandidateProfile, j JobProfile, maxCVChars int) string {
	var b strings.Builder

	b.WriteString("Evaluate the following candidate against the job opening.\n\n")

	b.WriteString("JOB:\n")
	fmt.Fprintf(&b, "Title: %s\n", orUnknown(j.Title))
	fmt.Fprintf(&b, "Location: %s\n", orUnknown(j.Location))
	fmt.Fprintf(&b, "Required experience: %d years\n", j.RequiredExperience)
	fmt.Fprintf(&b, "Required skills: %s\n", renderList(j.RequiredSkills, "none listed"))
	fmt.Fprintf(&b, "Description: %s\n", orUnknown(j.Description))
	fmt.Fprintf(&b, "Requirements: %s\n", orUnknown(j.Requirements))

	b.WriteString("\nCANDIDATE:\n")
	fmt.Fprintf(&b, "Name: %s\n", orUnknown(c.FullName))
	fmt.Fprintf(&b, "Location: %s\n", orUnknown(c.Location))
	fmt.Fprintf(&b, "Education level: %s\n", orUnknown(c.EducationLevel))
	if c.YearsOfExperience != nil {
		fmt.Fprintf(&b, "Years of experience: %d\n", *c.YearsOfExperience)
	} else {
		b.WriteString("Years of experience: unknown\n")
	}
	if c.Skills == nil {
		b.WriteString("Skills: not extracted (infer from CV)\n")
	} else {
		fmt.Fprintf(&b, "Skills: %s\n", renderList(c.Skills, "none"))
	}

	b.WriteString("\nCV:\n")
	cv := strings.TrimSpace(c.CVText)
	if cv == "" {
		b.WriteString("No CV text is available. Score experience, skills and education conservatively and name the missing CV as a risk signal.\n")
	} else {
		b.WriteString(truncateRunes(cv, maxCVChars))
		b.WriteString("\n")
	}

	b.WriteString("\nAlso extract the candidate's contact details, years of experience, education level and skills from the CV when present.\n")
	b.WriteString("\nOutput strictly in JSON with this structure:\n")
	b.WriteString(responseSchema)
	return b.String()
}

func correctivePrompt(prompt string, validationErr error) string {
	return prompt + "\n\nYour previous response could not be used: " + validationErr.Error() +
		". Respond again with only the JSON object described above."
}

func renderList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
