package service

import (
	"fmt"
	"strings"

	"github.com/nyaya-labs/sahayak/internal/domain"
)

const (
	analysisMaxTokens  = 500
	summaryMaxTokens   = 300
	synthesisMaxTokens = 2000

	// summarySourceMaxChars bounds how much retrieved segment text goes
	// into a per-case summary prompt.
	summarySourceMaxChars = 2000

	// directSourceMaxChars bounds each segment quoted in the direct-path
	// prompt; the direct path carries every retrieved case in one call.
	directSourceMaxChars = 2000

	maxFollowUps = 4
)

const analysisSystemPrompt = `You are a legal query analyzer. Extract the main legal issues and keywords from the user's query.
Return your response in this format:
LEGAL ISSUES:
- [issue 1]
- [issue 2]

KEYWORDS:
- [keyword 1]
- [keyword 2]`

const summarySystemPrompt = `You are a legal case summarizer. Extract the key legal arguments,
holdings, and reasoning from the provided case text. Be concise but comprehensive.`

const synthesisSystemPrompt = `You are NyayaSahayak, an expert Indian legal AI assistant.
Provide comprehensive legal analysis based on the retrieved cases.

Your response should:
1. Address the legal query directly
2. Reference specific cases and their holdings by citation or title
3. Explain relevant legal principles and doctrines
4. Provide balanced analysis
5. Use proper legal terminology
6. Acknowledge any limitations

After the analysis, add a section in this exact format:
FOLLOW-UP QUESTIONS:
- [question 1]
- [question 2]

Format your response clearly with proper structure.`

const directSystemPrompt = `You are an expert Indian legal AI assistant named NyayaSahayak.
Your role is to provide accurate, well-reasoned legal analysis based on Indian case law and statutes.

When answering:
1. Base your response on the provided case law context
2. Cite specific cases and their citations
3. Explain legal principles clearly
4. Identify relevant legal doctrines and precedents
5. Provide balanced analysis considering multiple perspectives
6. Use proper legal terminology

After the analysis, add a section in this exact format:
FOLLOW-UP QUESTIONS:
- [question 1]
- [question 2]

Always maintain professional tone and acknowledge limitations when information is insufficient.`

// insufficientEvidenceContext replaces retrieved context when no cases
// match; synthesis must say so instead of inventing citations.
const insufficientEvidenceContext = `No relevant cases were found in the indexed corpus for this query.
State clearly that the available evidence is insufficient to cite specific precedent, and answer only in general terms without fabricating case names or citations.`

func analysisUserPrompt(query string) string {
	return fmt.Sprintf("Analyze this legal query: %s", query)
}

func summaryUserPrompt(ranked domain.RankedCase) string {
	var texts []string
	for _, seg := range ranked.Segments {
		texts = append(texts, seg.Entry.Text)
	}
	source := strings.Join(texts, "\n\n")
	runes := []rune(source)
	if len(runes) > summarySourceMaxChars {
		source = string(runes[:summarySourceMaxChars])
	}

	return fmt.Sprintf(`Case: %s
Citation: %s

Text:
%s

Provide a brief summary of the key legal points.`, ranked.Meta.Title, ranked.Meta.Citation, source)
}

func synthesisUserPrompt(query string, issues []string, related []domain.RankedCase, summaries []string) string {
	issueLines := make([]string, 0, len(issues))
	for _, issue := range issues {
		issueLines = append(issueLines, "- "+issue)
	}

	caseLines := make([]string, 0, len(related))
	for _, c := range related {
		caseLines = append(caseLines, fmt.Sprintf("- %s (%s)", c.Meta.Title, c.Meta.Citation))
	}

	context := strings.Join(summaries, "\n\n")
	if context == "" {
		context = insufficientEvidenceContext
	}

	return fmt.Sprintf(`Query: %s

Legal Issues Identified:
%s

Related Cases:
%s

Case Summaries and Analysis:
%s

Provide a comprehensive legal analysis addressing the query.`,
		query, strings.Join(issueLines, "\n"), strings.Join(caseLines, "\n"), context)
}

func directUserPrompt(query string, related []domain.RankedCase) string {
	var parts []string
	for i, c := range related {
		var texts []string
		for _, seg := range c.Segments {
			texts = append(texts, segmentPreview(seg.Entry.Text, directSourceMaxChars))
		}
		parts = append(parts, fmt.Sprintf(`[Case %d]
Title: %s
Citation: %s
Court: %s
Decision Date: %s

Relevant Text:
%s

---`, i+1, c.Meta.Title, c.Meta.Citation, c.Meta.Court, formatDecisionDate(c.Meta.DecisionDate), strings.Join(texts, "\n\n")))
	}

	context := strings.Join(parts, "\n")
	if context == "" {
		context = insufficientEvidenceContext
	}

	return fmt.Sprintf(`Based on the following Indian legal cases and context, please answer the query.

CONTEXT:
%s

QUERY: %s

Please provide a comprehensive legal analysis.`, context, query)
}

// parseAnalysis extracts the dash lists under the LEGAL ISSUES and
// KEYWORDS headings. Anything the model adds around them is ignored.
func parseAnalysis(response string) (issues, keywords []string) {
	section := ""
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, "LEGAL ISSUES:"):
			section = "issues"
		case strings.Contains(line, "KEYWORDS:"):
			section = "keywords"
		case strings.HasPrefix(line, "-"):
			item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			if item == "" {
				continue
			}
			switch section {
			case "issues":
				issues = append(issues, item)
			case "keywords":
				keywords = append(keywords, item)
			}
		}
	}
	return issues, keywords
}

// parseSynthesis splits a synthesis response into the answer body and the
// trailing follow-up questions, capped at maxFollowUps.
func parseSynthesis(response string) (answer string, followUps []string) {
	marker := "FOLLOW-UP QUESTIONS:"
	idx := strings.Index(response, marker)
	if idx < 0 {
		return strings.TrimSpace(response), nil
	}

	answer = strings.TrimSpace(response[:idx])
	for _, line := range strings.Split(response[idx+len(marker):], "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		item := strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if item == "" {
			continue
		}
		followUps = append(followUps, item)
		if len(followUps) == maxFollowUps {
			break
		}
	}
	return answer, followUps
}
