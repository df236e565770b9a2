package domain

import (
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// RenderedSnippet is one platform's snippet rendered for a configuration.
type RenderedSnippet struct {
	ConfigID snowflake.ID `json:"config_id"`
	Platform string       `json:"platform"`
	Name     string       `json:"name"`
	Code     string       `json:"code"`
}

// GenerateSnippets renders one snippet per platform from the given
// configurations. Platforms render in the fixed priority order regardless
// of creation order. Duplicate platforms collapse to the configuration
// with the earliest creation timestamp, lowest ID on ties, so the output
// is a pure function of the input set.
func GenerateSnippets(configs []TrackingConfiguration) []RenderedSnippet {
	byPlatform := make(map[string]TrackingConfiguration, len(configs))
	for _, c := range configs {
		if _, ok := descriptors[c.Platform]; !ok {
			continue
		}
		held, seen := byPlatform[c.Platform]
		if !seen || c.CreatedAt.Before(held.CreatedAt) ||
			(c.CreatedAt.Equal(held.CreatedAt) && c.ID < held.ID) {
			byPlatform[c.Platform] = c
		}
	}

	picked := make([]TrackingConfiguration, 0, len(byPlatform))
	for _, c := range byPlatform {
		picked = append(picked, c)
	}
	sort.Slice(picked, func(i, j int) bool {
		return platformRank(picked[i].Platform) < platformRank(picked[j].Platform)
	})

	out := make([]RenderedSnippet, 0, len(picked))
	for _, c := range picked {
		out = append(out, RenderedSnippet{
			ConfigID: c.ID,
			Platform: c.Platform,
			Name:     c.Name,
			Code:     descriptors[c.Platform].Render(c.TrackingID),
		})
	}
	return out
}

// Generate joins the rendered snippets into one embeddable fragment.
func Generate(configs []TrackingConfiguration) string {
	snippets := GenerateSnippets(configs)
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		parts = append(parts, s.Code)
	}
	return strings.Join(parts, "\n")
}
