package enhance

import (
	"fmt"
	"strings"

	"pressroom/internal/core"
)

// responseFormat is appended to every article prompt so the model's
// output can be parsed deterministically.
const responseFormat = `
Respond in exactly this format:

TITLE: <article title on one line>
EXCERPT: <one- or two-sentence standfirst, max 160 characters>
TAGS: <comma-separated topical tags>
BODY:
<the full article body in markdown>`

// buildGeneratePrompt produces the prompt for writing an article from scratch.
func buildGeneratePrompt(req core.ContentRequest, research core.ResearchBundle, recentTitles []string) string {
	var b strings.Builder

	b.WriteString("Write a complete article for a financial-modelling consultancy's publication.\n\n")
	writeSubject(&b, req)
	writeConstraints(&b, req)
	writeResearch(&b, research)
	writeAvoidTitles(&b, req, recentTitles)
	b.WriteString(responseFormat)

	return b.String()
}

// buildEnhancePrompt produces the prompt for reworking an author's draft.
func buildEnhancePrompt(req core.ContentRequest, research core.ResearchBundle, recentTitles []string) string {
	var b strings.Builder

	b.WriteString("Rework the draft below into a publishable article for a financial-modelling consultancy's publication.\n")
	b.WriteString("Preserve the author's key points as talking points; you may rephrase but not drop them.\n\n")
	writeSubject(&b, req)
	writeConstraints(&b, req)
	writeResearch(&b, research)
	writeAvoidTitles(&b, req, recentTitles)

	b.WriteString("\nDRAFT:\n---\n")
	b.WriteString(req.RawContent)
	b.WriteString("\n---\n")
	b.WriteString(responseFormat)

	return b.String()
}

// buildImprovePrompt produces the single bounded improvement pass,
// feeding evaluation findings back as directives.
func buildImprovePrompt(draft *core.DraftArticle, req core.ContentRequest, eval *core.EvaluationResult) string {
	var b strings.Builder

	b.WriteString("Revise the article below to address the editorial findings. Keep the subject, structure and facts; fix the issues.\n\n")

	if len(eval.CriticalIssues) > 0 {
		b.WriteString("CRITICAL ISSUES (must fix):\n")
		for _, issue := range eval.CriticalIssues {
			b.WriteString(fmt.Sprintf("- %s\n", issue))
		}
	}
	if len(eval.Warnings) > 0 {
		b.WriteString("WARNINGS:\n")
		for _, w := range eval.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}
	if len(eval.Suggestions) > 0 {
		b.WriteString("SUGGESTIONS:\n")
		for _, s := range eval.Suggestions {
			b.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}

	writeConstraints(&b, req)

	b.WriteString("\nARTICLE:\n---\n")
	b.WriteString("Title: " + draft.Title + "\n\n")
	b.WriteString(draft.Body)
	b.WriteString("\n---\n")
	b.WriteString(responseFormat)

	return b.String()
}

func writeSubject(b *strings.Builder, req core.ContentRequest) {
	if req.Title != "" {
		b.WriteString(fmt.Sprintf("Use exactly this title: %s\n", req.Title))
	} else if req.Topic != "" {
		b.WriteString(fmt.Sprintf("Topic: %s\n", req.Topic))
	}
	if len(req.KeyPoints) > 0 {
		b.WriteString("Key points to cover:\n")
		for _, kp := range req.KeyPoints {
			b.WriteString(fmt.Sprintf("- %s\n", kp))
		}
	}
}

func writeConstraints(b *strings.Builder, req core.ContentRequest) {
	b.WriteString(fmt.Sprintf("\nTarget length: about %d words (stay within 20%% of that).\n", req.TargetWordCount))
	if len(req.Keywords) > 0 {
		b.WriteString(fmt.Sprintf("Work these keywords in naturally: %s.\n", strings.Join(req.Keywords, ", ")))
	}
	if req.Audience != "" {
		b.WriteString(fmt.Sprintf("Audience: %s.\n", req.Audience))
	}
	if req.Tone != "" {
		b.WriteString(fmt.Sprintf("Tone: %s.\n", req.Tone))
	}
}

func writeResearch(b *strings.Builder, research core.ResearchBundle) {
	if len(research.Facts) == 0 {
		return
	}
	b.WriteString("\nResearch findings to weave in as attributable claims (cite the source by name):\n")
	for _, f := range research.Facts {
		b.WriteString(fmt.Sprintf("- %s (%s): %s\n", f.Title, f.Locator, f.Snippet))
	}
}

func writeAvoidTitles(b *strings.Builder, req core.ContentRequest, recentTitles []string) {
	if req.Title != "" || len(recentTitles) == 0 {
		return
	}
	b.WriteString("\nRecently published titles in this category; make the new title clearly distinct from all of them:\n")
	for _, t := range recentTitles {
		b.WriteString(fmt.Sprintf("- %s\n", t))
	}
}

// parseArticleResponse splits a structured model response into its
// sections. Missing TITLE or BODY markers fall back to treating the
// first line as title and the rest as body.
func parseArticleResponse(text string) (title, excerpt string, tags []string, body string) {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "BODY:"); idx >= 0 {
		header := text[:idx]
		body = strings.TrimSpace(text[idx+len("BODY:"):])

		for _, line := range strings.Split(header, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "TITLE:"):
				title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
			case strings.HasPrefix(line, "EXCERPT:"):
				excerpt = strings.TrimSpace(strings.TrimPrefix(line, "EXCERPT:"))
			case strings.HasPrefix(line, "TAGS:"):
				for _, tag := range strings.Split(strings.TrimPrefix(line, "TAGS:"), ",") {
					if tag = strings.TrimSpace(tag); tag != "" {
						tags = append(tags, tag)
					}
				}
			}
		}
		title = strings.Trim(title, "\"*# ")
		return title, excerpt, tags, body
	}

	// Unstructured fallback
	lines := strings.SplitN(text, "\n", 2)
	title = strings.Trim(strings.TrimSpace(lines[0]), "\"*# ")
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}
	return title, excerpt, tags, body
}
