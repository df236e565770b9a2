package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/traffictuner/traffictuner/internal/clock"
	"github.com/traffictuner/traffictuner/internal/config"
)

// Analysis types accepted by the engine.
const (
	TypeFull       = "full"
	TypeQuick      = "quick"
	TypeCompetitor = "competitor"
)

// ValidType reports whether t names a known analysis type.
func ValidType(t string) bool {
	switch t {
	case TypeFull, TypeQuick, TypeCompetitor:
		return true
	default:
		return false
	}
}

var seoFactors = []string{
	"title_tags",
	"meta_descriptions",
	"headings",
	"internal_links",
	"page_speed",
	"mobile_friendly",
}

var aeoFactors = []string{
	"content_structure",
	"schema_markup",
	"faq_optimization",
	"featured_snippets",
	"voice_search",
	"ai_formatting",
}

var factorRecommendations = map[string]Recommendation{
	"meta_descriptions": {
		Category:    "Meta Descriptions",
		Priority:    "high",
		Description: "Add compelling meta descriptions to improve click-through rates",
		Impact:      "medium",
	},
	"internal_links": {
		Category:    "Internal Linking",
		Priority:    "medium",
		Description: "Improve internal link structure for better crawlability",
		Impact:      "medium",
	},
	"page_speed": {
		Category:    "Page Speed",
		Priority:    "high",
		Description: "Reduce page weight and defer non-critical scripts",
		Impact:      "high",
	},
	"schema_markup": {
		Category:    "Schema Markup",
		Priority:    "high",
		Description: "Implement structured data markup for better AI understanding",
		Impact:      "high",
	},
	"faq_optimization": {
		Category:    "FAQ Optimization",
		Priority:    "medium",
		Description: "Add an FAQ section answering common questions directly",
		Impact:      "medium",
	},
	"voice_search": {
		Category:    "Voice Search",
		Priority:    "low",
		Description: "Phrase key content as direct answers to spoken questions",
		Impact:      "low",
	},
}

// HeuristicEngine is the bundled scorer. Scores are a pure function of
// the URL so repeated runs against an unchanged site are comparable;
// configured default scores act as floors.
type HeuristicEngine struct {
	holder *config.EngineConfigHolder
	clock  clock.Clock
}

func NewHeuristic(holder *config.EngineConfigHolder, clk clock.Clock) *HeuristicEngine {
	return &HeuristicEngine{holder: holder, clock: clk}
}

func (e *HeuristicEngine) Analyze(ctx context.Context, url, analysisType string) (*Result, error) {
	if !ValidType(analysisType) {
		return nil, fmt.Errorf("unknown analysis type %q", analysisType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := e.holder.Get()

	seo := e.section(url, "seo", seoFactors, cfg.DefaultSEOScore)

	var aeo Section
	if analysisType == TypeQuick {
		// Quick runs skip the deep answer-engine pass and report the
		// configured floor.
		aeo = Section{
			Score:   cfg.DefaultAEOScore,
			Factors: map[string]FactorScore{},
		}
	} else {
		aeo = e.section(url, "aeo", aeoFactors, cfg.DefaultAEOScore)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	combined := append(append([]Recommendation{}, seo.Recommendations...), aeo.Recommendations...)
	overall := round1((seo.Score + aeo.Score) / 2)

	return &Result{
		SEOScore:        seo.Score,
		AEOScore:        aeo.Score,
		OverallScore:    overall,
		SEO:             seo,
		AEO:             aeo,
		Recommendations: combined,
		LLMSFileContent: e.llmsTxt(url, seo.Score, aeo.Score),
		Summary: fmt.Sprintf(
			"%s scored %.1f for SEO and %.1f for answer engines; %d improvements suggested.",
			url, seo.Score, aeo.Score, len(combined),
		),
	}, nil
}

func (e *HeuristicEngine) section(url, dimension string, factors []string, floor float64) Section {
	scored := make(map[string]FactorScore, len(factors))
	var recs []Recommendation
	var sum float64

	for _, factor := range factors {
		score := factorScore(url, dimension, factor)
		scored[factor] = FactorScore{Score: score, Status: statusFor(score)}
		sum += score
		if rec, ok := factorRecommendations[factor]; ok && score < 75 {
			recs = append(recs, rec)
		}
	}

	score := round1(sum / float64(len(factors)))
	if score < floor {
		score = floor
	}
	return Section{Score: score, Factors: scored, Recommendations: recs}
}

func (e *HeuristicEngine) llmsTxt(url string, seoScore, aeoScore float64) string {
	var b strings.Builder
	b.WriteString("# LLMs.txt for " + url + "\n")
	b.WriteString("# Generated by TrafficTuner\n\n")
	b.WriteString("# Site Information\n")
	b.WriteString("Site: " + url + "\n")
	b.WriteString("Description: Website optimized for AI search engines\n")
	b.WriteString("Generated: " + e.clock.Now().Format("2006-01-02T15:04:05Z07:00") + "\n\n")
	b.WriteString("# Content Guidelines\n")
	b.WriteString("- This site provides accurate and up-to-date information\n")
	b.WriteString("- Content is regularly reviewed and updated\n")
	b.WriteString("- All claims are backed by reliable sources\n\n")
	b.WriteString("# Optimization\n")
	b.WriteString(fmt.Sprintf("SEO Score: %.1f\n", seoScore))
	b.WriteString(fmt.Sprintf("AEO Score: %.1f\n", aeoScore))
	return b.String()
}

// factorScore maps (url, dimension, factor) onto [55, 95].
func factorScore(url, dimension, factor string) float64 {
	h := fnv.New64a()
	h.Write([]byte(url))
	h.Write([]byte{'|'})
	h.Write([]byte(dimension))
	h.Write([]byte{'|'})
	h.Write([]byte(factor))
	return float64(55 + h.Sum64()%41)
}

func statusFor(score float64) string {
	switch {
	case score >= 88:
		return "excellent"
	case score >= 70:
		return "good"
	default:
		return "needs_improvement"
	}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
