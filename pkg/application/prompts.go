package application

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/specloop/pkg/domain/verdict"
)

// Prompt construction is plain string formatting. The only parts the
// rest of the system depends on are the output-format contracts: the
// <errors: N> tag for requirements validation and the JSON score shape
// for diagram validation; both must match what pkg/domain/verdict
// extracts.

func srsGenerationPrompt(urd, standard string) string {
	return fmt.Sprintf(`You are a senior software requirements engineer creating a Software Requirements Specification (SRS).

You have been provided with:
1. User Requirements Document (URD) - describing what the user wants
2. The reference standard - the template and guidelines for SRS documents

Transform the user requirements into a professional, complete SRS following the standard.

**USER REQUIREMENTS DOCUMENT (URD):**
%s

**REFERENCE STANDARD CONTENT:**
%s

**Instructions:**
1. Follow the standard's structure and format
2. Make requirements specific, measurable, achievable, relevant, and time-bound
3. Include functional requirements, non-functional requirements, and constraints
4. Provide clear requirement IDs, priorities, and traceability to user needs

Generate the SRS document now:
`, urd, standard)
}

func srsValidationPrompt(urd, srs, standard, previousValidation string) string {
	var previousSection string
	if previousValidation != "" {
		previousSection = fmt.Sprintf(`
**PREVIOUS VALIDATION REPORT:**
%s

NOTE: This SRS might be a reviewed version attempting to address previous evaluation points.
`, previousValidation)
	}

	return fmt.Sprintf(`You work with software development requirements, particularly in the quality and auditing area.

Validate that:
- ALL user requirements from the URD are present and properly addressed in the SRS
- The SRS follows the reference standard's structure, format, and quality guidelines
- There are no inconsistencies, ambiguities, or missing critical information

**USER REQUIREMENTS DOCUMENT (URD):**
%s

**SOFTWARE REQUIREMENTS SPECIFICATION (SRS) TO VALIDATE:**
%s

**REFERENCE STANDARD CONTENT:**
%s
%s
**OUTPUT FORMAT:**
Provide a validation report with an executive summary, detailed analysis by section, missing requirements, compliance gaps, and specific recommendations. Identify each problem found clearly.

**CRITICAL: At the end of your report, insert a tag specifying the total number of problems found using this exact format:**
<errors: #>

Where # is the actual number of problems/issues identified (e.g., <errors: 3>, <errors: 0>, <errors: 15>).
This tag is used by automated systems to determine if the SRS passed or failed the audit process.

Generate the SRS Validation Report now:
`, urd, srs, standard, previousSection)
}

func srsReviewPrompt(srs, validationReport string) string {
	return fmt.Sprintf(`You are a software engineer who wrote an SRS. Another department responsible for quality and auditing has reviewed it and produced a validation report with specific feedback and recommendations.

Review your original SRS and create a new, improved version that addresses all identified issues while keeping the standard's structure and numbering.

**YOUR ORIGINAL SRS DOCUMENT:**
%s

**VALIDATION REPORT WITH FEEDBACK:**
%s

Generate the complete improved SRS document now:
`, srs, validationReport)
}

// Diagram family prompts. Family keys are the short names used for
// artifact families; display names describe the diagram kind.

func diagramPrompt(family, sliceName, requirements string) string {
	switch family {
	case FamilyStructure:
		return fmt.Sprintf(`You are an expert software architect. Create a PlantUML class diagram modelling the data and structural entities of the requirements below.

REQUIREMENTS (%s):
%s

Rules:
- Output ONLY PlantUML code, starting with @startuml and ending with @enduml
- Include classes, attributes, methods, and relationships with multiplicities
- No markdown fences, no surrounding prose
`, sliceName, requirements)
	case FamilyInteraction:
		return fmt.Sprintf(`You are an expert software architect. Create a PlantUML sequence diagram for the main interactions of the requirements below.

REQUIREMENTS (%s Interactions):
%s

Rules:
- Output ONLY PlantUML code, starting with @startuml and ending with @enduml
- Show actors, participants, and message flows including error paths
- No markdown fences, no surrounding prose
`, sliceName, requirements)
	default:
		return fmt.Sprintf(`You are an expert software architect. Create a PlantUML activity diagram for the workflow logic of the requirements below.

REQUIREMENTS (%s Workflow):
%s

Rules:
- Output ONLY PlantUML code, starting with @startuml and ending with @enduml
- Model decisions, branches, and end states
- No markdown fences, no surrounding prose
`, sliceName, requirements)
	}
}

func setValidationPrompt(sliceName, requirements string, contents map[string]string) string {
	return fmt.Sprintf(`You are a senior software architect and quality assurance expert. Validate the consistency and quality of UML diagrams generated from requirements.

REQUIREMENTS SLICE (%s):
%s

GENERATED DIAGRAMS:

1. CLASS DIAGRAM (Structure):
%s

2. SEQUENCE DIAGRAM (Interactions):
%s

3. ACTIVITY DIAGRAM (Logic/Workflow):
%s

VALIDATION CRITERIA:
1. Consistency: Do the diagrams contradict each other?
2. Completeness: Do the diagrams cover all requirements in the slice?
3. Quality: Are the diagrams syntactically correct and following UML best practices?
4. Scope: Do the diagrams stay within the requirements, without invented features?
5. Gap Analysis: What is missing or ambiguous?

**OUTPUT FORMAT:**
Provide your analysis in strict JSON with this structure:
{
    "consistency_analysis": "...",
    "completeness_analysis": "...",
    "quality_analysis": "...",
    "scope_adherence_analysis": "...",
    "scope_violations": ["..."],
    "gap_analysis": "...",
    "consistency_score": 8,
    "completeness_score": 9,
    "quality_score": 8,
    "scope_adherence_score": 9,
    "overall_score": 8,
    "recommendations": ["..."]
}

All scores are integers 0-10. Ensure the output is valid JSON. Do not include markdown formatting (like`+" ```json) "+`around the output.
`, sliceName, requirements,
		orSentinel(contents[FamilyStructure]),
		orSentinel(contents[FamilyInteraction]),
		orSentinel(contents[FamilyLogic]))
}

func orSentinel(content string) string {
	if strings.TrimSpace(content) == "" {
		return verdict.NotGeneratedSentinel
	}
	return content
}

func refinementPrompt(family, sliceName, requirements, currentSource string, report *verdict.ScoreReport, iteration int) string {
	var recs strings.Builder
	for i, r := range report.Recommendations {
		fmt.Fprintf(&recs, "%d. %s\n", i+1, r)
	}
	if recs.Len() == 0 {
		recs.WriteString("No specific recommendations were provided.\n")
	}

	return fmt.Sprintf(`You are a design reviewer improving a UML diagram based on QA feedback (iteration %d).

REQUIREMENTS SLICE (%s):
%s

CURRENT %s DIAGRAM:
%s

QA SCORES FROM PREVIOUS ITERATION:
- Overall Score: %s/10
- Consistency Score: %s/10
- Completeness Score: %s/10
- Quality Score: %s/10

QA ANALYSIS:
Consistency: %s
Completeness: %s
Quality: %s
Gaps: %s

RECOMMENDATIONS:
%s
Produce an improved version of this diagram that addresses the feedback while staying within the requirements.

Rules:
- Output ONLY PlantUML code, starting with @startuml and ending with @enduml
- No markdown fences, no surrounding prose
`, iteration, sliceName, requirements, strings.ToUpper(family), currentSource,
		scoreLabel(report.OverallScore), scoreLabel(report.ConsistencyScore),
		scoreLabel(report.CompletenessScore), scoreLabel(report.QualityScore),
		orDefault(report.ConsistencyAnalysis), orDefault(report.CompletenessAnalysis),
		orDefault(report.QualityAnalysis), orDefault(report.GapAnalysis),
		recs.String())
}

func scoreLabel(score int) string {
	if score == verdict.Unknown {
		return "N/A"
	}
	return fmt.Sprintf("%d", score)
}

func orDefault(analysis string) string {
	if analysis == "" {
		return "No analysis provided"
	}
	return analysis
}
