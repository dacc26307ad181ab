package enhance

import "strings"

// DefaultCategory is the fallback sector tag when inference finds no match.
const DefaultCategory = "Insights"

// sectorVocabulary is the closed set of sector tags articles are filed
// under, each with the terms that map onto it. Free-text categories are
// never produced; an unmatched topic falls back to DefaultCategory.
var sectorVocabulary = []struct {
	Tag      string
	Keywords []string
}{
	{"Project Finance", []string{"project finance", "dscr", "debt sizing", "sculpting", "lender", "covenant", "concession"}},
	{"Renewable Energy", []string{"solar", "wind", "hydrogen", "renewable", "battery", "storage", "ppa", "offtake", "tax equity"}},
	{"Real Estate", []string{"real estate", "property", "reit", "development", "lease", "tenant", "cap rate"}},
	{"Infrastructure", []string{"infrastructure", "toll", "airport", "port", "rail", "ppp", "p3", "utility"}},
	{"M&A & Valuation", []string{"m&a", "merger", "acquisition", "valuation", "dcf", "multiples", "due diligence", "lbo"}},
	{"Financial Modelling", []string{"financial model", "modelling", "modeling", "spreadsheet", "excel", "scenario", "sensitivity", "three-statement"}},
	{"Market Analysis", []string{"market", "outlook", "trend", "forecast", "pricing", "demand", "supply"}},
	{"Regulation & Policy", []string{"regulation", "policy", "compliance", "ifrs", "csrd", "tax credit", "subsidy", "ira"}},
}

// Categories returns the closed set of sector tags, default last.
func Categories() []string {
	tags := make([]string, 0, len(sectorVocabulary)+1)
	for _, entry := range sectorVocabulary {
		tags = append(tags, entry.Tag)
	}
	return append(tags, DefaultCategory)
}

// ValidCategory reports whether tag belongs to the controlled vocabulary.
func ValidCategory(tag string) bool {
	if tag == DefaultCategory {
		return true
	}
	for _, entry := range sectorVocabulary {
		if strings.EqualFold(entry.Tag, tag) {
			return true
		}
	}
	return false
}

// InferCategory maps topic and keywords onto the controlled vocabulary
// by term matching, picking the tag with the most hits. No match falls
// back to DefaultCategory.
func InferCategory(topic string, keywords []string) string {
	haystack := strings.ToLower(topic + " " + strings.Join(keywords, " "))

	bestTag := DefaultCategory
	bestHits := 0
	for _, entry := range sectorVocabulary {
		hits := 0
		for _, term := range entry.Keywords {
			if strings.Contains(haystack, term) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestTag = entry.Tag
		}
	}
	return bestTag
}

// ResolveCategory keeps a caller-supplied tag when it is in the
// vocabulary and infers one otherwise.
func ResolveCategory(requested, topic string, keywords []string) string {
	requested = strings.TrimSpace(requested)
	if requested != "" && ValidCategory(requested) {
		// Canonical casing
		for _, entry := range sectorVocabulary {
			if strings.EqualFold(entry.Tag, requested) {
				return entry.Tag
			}
		}
		return DefaultCategory
	}
	return InferCategory(topic, keywords)
}
