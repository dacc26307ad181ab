package evaluate

import (
	"regexp"
	"strings"

	"pressroom/internal/core"
)

// Dimension names as they appear in evaluation reports.
const (
	DimSearchOptimization = "search_optimization"
	DimReadability        = "readability"
	DimDomainAccuracy     = "domain_accuracy"
	DimEngagement         = "engagement"
	DimTechnicalDepth     = "technical_depth"
	DimOriginality        = "originality"
	DimImage              = "image"
)

// Dimension weights. They sum to 1.0 with the image dimension included;
// when the image concern is skipped the remaining weights are divided by
// their own sum so the overall score stays on the 0-100 scale.
var dimensionWeights = map[string]float64{
	DimSearchOptimization: 0.20,
	DimReadability:        0.15,
	DimDomainAccuracy:     0.20,
	DimEngagement:         0.15,
	DimTechnicalDepth:     0.10,
	DimOriginality:        0.10,
	DimImage:              0.10,
}

var sentenceSplit = regexp.MustCompile(`[.!?]+\s`)
var numberPattern = regexp.MustCompile(`\d`)

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// scoreSearchOptimization checks keyword placement, density and the
// discoverability metadata (title length, excerpt, tags).
func scoreSearchOptimization(draft *core.DraftArticle, keywords []string) (float64, string) {
	score := 40.0
	var notes []string

	titleLower := strings.ToLower(draft.Title)
	bodyLower := strings.ToLower(draft.Body)
	bodyWords := len(strings.Fields(draft.Body))

	if len(keywords) > 0 {
		inTitle := 0
		inBody := 0
		totalOccurrences := 0
		for _, kw := range keywords {
			kwLower := strings.ToLower(kw)
			if strings.Contains(titleLower, kwLower) {
				inTitle++
			}
			if n := strings.Count(bodyLower, kwLower); n > 0 {
				inBody++
				totalOccurrences += n
			}
		}
		if inTitle > 0 {
			score += 15
		} else {
			notes = append(notes, "no target keyword appears in the title")
		}
		score += 25 * float64(inBody) / float64(len(keywords))
		if inBody < len(keywords) {
			notes = append(notes, "some target keywords never appear in the body")
		}

		if bodyWords > 0 {
			density := float64(totalOccurrences) / float64(bodyWords) * 100
			if density > 4 {
				score -= 15
				notes = append(notes, "keyword density is high enough to read as stuffing")
			}
		}
	} else {
		score += 25 // Nothing to place; judged on metadata alone
	}

	if titleLen := len(draft.Title); titleLen >= 30 && titleLen <= 65 {
		score += 10
	} else {
		notes = append(notes, "title length is outside the 30-65 character search snippet range")
	}
	if draft.Excerpt != "" && len(draft.Excerpt) <= 160 {
		score += 5
	} else {
		notes = append(notes, "missing or oversized excerpt")
	}
	if len(draft.Tags) > 0 {
		score += 5
	}

	return clamp(score), strings.Join(notes, "; ")
}

// scoreReadability uses sentence and paragraph shape plus structural
// markers as a proxy for readable prose.
func scoreReadability(draft *core.DraftArticle) (float64, string) {
	body := strings.TrimSpace(draft.Body)
	if body == "" {
		return 0, "empty body"
	}

	score := 50.0
	var notes []string

	sentences := sentenceSplit.Split(body, -1)
	totalWords := 0
	longSentences := 0
	for _, s := range sentences {
		words := len(strings.Fields(s))
		totalWords += words
		if words > 35 {
			longSentences++
		}
	}
	if len(sentences) > 0 {
		avg := float64(totalWords) / float64(len(sentences))
		switch {
		case avg >= 12 && avg <= 25:
			score += 25
		case avg < 12:
			score += 10
			notes = append(notes, "prose is choppy; average sentence is very short")
		default:
			notes = append(notes, "average sentence length is above 25 words")
		}
	}
	if longSentences > len(sentences)/5 {
		score -= 10
		notes = append(notes, "many sentences run past 35 words")
	}

	paragraphs := strings.Split(body, "\n\n")
	wall := false
	for _, p := range paragraphs {
		if len(strings.Fields(p)) > 180 {
			wall = true
		}
	}
	if !wall {
		score += 15
	} else {
		notes = append(notes, "contains wall-of-text paragraphs over 180 words")
	}

	if strings.Contains(body, "\n#") || strings.HasPrefix(body, "#") {
		score += 10
	} else {
		notes = append(notes, "no section headings")
	}

	return clamp(score), strings.Join(notes, "; ")
}

// scoreDomainAccuracy measures how well the draft is grounded in the
// collected research. Without research it falls back to a neutral
// baseline so ungrounded builds are not scored as inaccurate.
func scoreDomainAccuracy(draft *core.DraftArticle, research core.ResearchBundle) (float64, string) {
	if len(research.Facts) == 0 {
		return 60, "no research collected; accuracy not verifiable"
	}

	bodyLower := strings.ToLower(draft.Body)
	referenced := 0
	for _, fact := range research.Facts {
		if factReferenced(bodyLower, fact) {
			referenced++
		}
	}

	coverage := float64(referenced) / float64(len(research.Facts))
	score := 30 + coverage*55 + float64(research.Confidence)*0.15

	var note string
	if coverage < 0.3 {
		note = "draft uses little of the collected research"
	}
	return clamp(score), note
}

// factReferenced reports whether enough of a fact's title tokens show
// up in the body to count it as woven in.
func factReferenced(bodyLower string, fact core.SourcedFact) bool {
	tokens := strings.Fields(strings.ToLower(fact.Title))
	if len(tokens) == 0 {
		return false
	}
	hits := 0
	for _, tok := range tokens {
		if len(tok) < 4 {
			continue
		}
		if strings.Contains(bodyLower, tok) {
			hits++
		}
	}
	return hits >= 2 || (len(tokens) <= 2 && hits >= 1)
}

// scoreEngagement rewards a strong opening, concrete examples, lists
// and a closing takeaway.
func scoreEngagement(draft *core.DraftArticle) (float64, string) {
	body := draft.Body
	bodyLower := strings.ToLower(body)
	score := 40.0
	var notes []string

	opening := body
	if idx := strings.Index(body, "\n\n"); idx > 0 {
		opening = body[:idx]
	}
	openWords := len(strings.Fields(opening))
	if openWords >= 20 && openWords <= 120 {
		score += 15
	} else {
		notes = append(notes, "opening paragraph does not set a hook")
	}

	if strings.Contains(body, "\n- ") || strings.Contains(body, "\n* ") || strings.Contains(body, "\n1. ") {
		score += 10
	}
	if strings.Contains(body, "?") {
		score += 5
	}
	for _, marker := range []string{"for example", "consider", "in practice", "case"} {
		if strings.Contains(bodyLower, marker) {
			score += 10
			break
		}
	}
	for _, marker := range []string{"takeaway", "conclusion", "bottom line", "in summary", "next step"} {
		if strings.Contains(bodyLower, marker) {
			score += 15
			break
		}
	}
	if score < 60 && len(notes) == 0 {
		notes = append(notes, "no worked example or closing takeaway")
	}

	return clamp(score), strings.Join(notes, "; ")
}

// scoreTechnicalDepth looks for quantitative content and domain
// terminology appropriate for a specialist readership.
func scoreTechnicalDepth(draft *core.DraftArticle) (float64, string) {
	bodyLower := strings.ToLower(draft.Body)
	score := 35.0
	var notes []string

	numericLines := 0
	for _, line := range strings.Split(draft.Body, "\n") {
		if numberPattern.MatchString(line) {
			numericLines++
		}
	}
	if numericLines >= 3 {
		score += 25
	} else if numericLines > 0 {
		score += 12
	} else {
		notes = append(notes, "no quantitative content")
	}

	terms := []string{"dscr", "irr", "npv", "wacc", "ebitda", "leverage", "covenant", "sensitivity",
		"discount rate", "cash flow", "capex", "opex", "amortization", "tenor", "basis point"}
	found := 0
	for _, term := range terms {
		if strings.Contains(bodyLower, term) {
			found++
		}
	}
	switch {
	case found >= 4:
		score += 30
	case found >= 2:
		score += 20
	case found == 1:
		score += 10
	default:
		notes = append(notes, "little domain terminology for a specialist readership")
	}

	if strings.Count(draft.Body, "\n#") >= 2 {
		score += 10
	}

	return clamp(score), strings.Join(notes, "; ")
}

// scoreOriginality compares the draft's word shingles against recently
// published bodies. With nothing to compare against it scores full.
func scoreOriginality(draft *core.DraftArticle, recentBodies []string) (float64, string) {
	if len(recentBodies) == 0 {
		return 100, ""
	}

	draftShingles := shingles(draft.Body, 4)
	if len(draftShingles) == 0 {
		return 0, "body too short to assess"
	}

	worst := 0.0
	for _, prev := range recentBodies {
		prevShingles := shingles(prev, 4)
		if len(prevShingles) == 0 {
			continue
		}
		overlap := 0
		for s := range draftShingles {
			if _, ok := prevShingles[s]; ok {
				overlap++
			}
		}
		ratio := float64(overlap) / float64(len(draftShingles))
		if ratio > worst {
			worst = ratio
		}
	}

	score := (1 - worst) * 100
	var note string
	if worst > 0.3 {
		note = "substantial overlap with a recently published article"
	}
	return clamp(score), note
}

// shingles returns the set of n-word sequences in text, lowercased.
func shingles(text string, n int) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{})
	for i := 0; i+n <= len(words); i++ {
		out[strings.Join(words[i:i+n], " ")] = struct{}{}
	}
	return out
}

// scoreImage grades the resolved hero image. Pending images score a
// neutral pass; a missing image drags the dimension down hard.
func scoreImage(image *core.ImageOutcome) (float64, string) {
	if image == nil {
		return 0, "no image outcome"
	}
	switch image.Status {
	case core.ImageResolved:
		if image.Quality > 0 {
			return clamp(image.Quality), ""
		}
		return 75, ""
	case core.ImagePending:
		return 70, "image pending author upload"
	default:
		return 30, "no hero image attached"
	}
}
