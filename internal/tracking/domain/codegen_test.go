package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	cases := []struct {
		platform string
		id       string
		ok       bool
	}{
		{PlatformMetaPixel, "123456789012345", true},
		{PlatformMetaPixel, "1234567890123456", true},
		{PlatformMetaPixel, "12345", false},
		{PlatformGA4, "G-ABC123DEF4", true},
		{PlatformGA4, "UA-12345678-1", false},
		{PlatformGTM, "GTM-ABC1234", true},
		{PlatformGTM, "GTM-abc1234", false},
		{PlatformClarity, "abcdefghij", true},
		{PlatformClarity, "ABCDEFGHIJ", false},
	}
	for _, tc := range cases {
		d, ok := Descriptor(tc.platform)
		require.True(t, ok)
		require.Equal(t, tc.ok, d.ValidID(tc.id), "%s %q", tc.platform, tc.id)
	}
}

func TestRenderSubstitutesTrackingID(t *testing.T) {
	d, ok := Descriptor(PlatformGA4)
	require.True(t, ok)

	code := d.Render("G-ABC123DEF4")
	require.Contains(t, code, "gtag/js?id=G-ABC123DEF4")
	require.Contains(t, code, "gtag('config', 'G-ABC123DEF4');")
	require.NotContains(t, code, "__TRACKING_ID__")
}

func TestGenerateOrdersByPlatformPriority(t *testing.T) {
	now := time.Now().UTC()
	// Pixel created first, container last; output still leads with the
	// container.
	configs := []TrackingConfiguration{
		{ID: 1, Platform: PlatformMetaPixel, TrackingID: "123456789012345", CreatedAt: now},
		{ID: 2, Platform: PlatformClarity, TrackingID: "abcdefghij", CreatedAt: now.Add(time.Second)},
		{ID: 3, Platform: PlatformGTM, TrackingID: "GTM-ABC1234", CreatedAt: now.Add(2 * time.Second)},
	}

	out := Generate(configs)
	gtm := strings.Index(out, "Google Tag Manager")
	pixel := strings.Index(out, "Meta Pixel Code")
	clarity := strings.Index(out, "Microsoft Clarity")
	require.True(t, gtm >= 0 && pixel >= 0 && clarity >= 0)
	require.Less(t, gtm, pixel)
	require.Less(t, pixel, clarity)
}

func TestGenerateIsDeterministic(t *testing.T) {
	now := time.Now().UTC()
	configs := []TrackingConfiguration{
		{ID: 1, Platform: PlatformGA4, TrackingID: "G-ABC123DEF4", CreatedAt: now},
		{ID: 2, Platform: PlatformGTM, TrackingID: "GTM-ABC1234", CreatedAt: now},
	}
	require.Equal(t, Generate(configs), Generate(configs))
}

func TestGenerateCollapsesDuplicatePlatforms(t *testing.T) {
	now := time.Now().UTC()
	configs := []TrackingConfiguration{
		{ID: 9, Platform: PlatformGA4, TrackingID: "G-LATER00000", CreatedAt: now.Add(time.Minute)},
		{ID: 4, Platform: PlatformGA4, TrackingID: "G-EARLY00000", CreatedAt: now},
	}

	snippets := GenerateSnippets(configs)
	require.Len(t, snippets, 1)
	require.Contains(t, snippets[0].Code, "G-EARLY00000")

	// Equal timestamps fall back to the lowest ID.
	configs[0].CreatedAt = now
	snippets = GenerateSnippets(configs)
	require.Len(t, snippets, 1)
	require.Contains(t, snippets[0].Code, "G-EARLY00000")
}

func TestGenerateJoinsWithNewline(t *testing.T) {
	now := time.Now().UTC()
	configs := []TrackingConfiguration{
		{ID: 1, Platform: PlatformGTM, TrackingID: "GTM-ABC1234", CreatedAt: now},
		{ID: 2, Platform: PlatformGA4, TrackingID: "G-ABC123DEF4", CreatedAt: now},
	}

	gtm, _ := Descriptor(PlatformGTM)
	ga4, _ := Descriptor(PlatformGA4)
	want := gtm.Render("GTM-ABC1234") + "\n" + ga4.Render("G-ABC123DEF4")
	require.Equal(t, want, Generate(configs))
}

func TestGenerateSkipsUnknownPlatforms(t *testing.T) {
	configs := []TrackingConfiguration{
		{ID: 1, Platform: "mixpanel", TrackingID: "whatever"},
	}
	require.Empty(t, Generate(configs))
}
