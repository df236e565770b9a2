package domain

import (
	"regexp"
	"strings"
)

// Supported tracking platforms. The set is static configuration data and
// is not user-editable at runtime.
const (
	PlatformMetaPixel = "meta_pixel"
	PlatformGA4       = "ga4"
	PlatformGTM       = "gtm"
	PlatformClarity   = "clarity"
)

const idPlaceholder = "__TRACKING_ID__"

// PlatformDescriptor describes one tracking platform: display metadata
// for the setup UI plus the ID format and the embeddable snippet template.
type PlatformDescriptor struct {
	Platform    string `json:"platform"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IDFormat    string `json:"id_format"`
	SetupURL    string `json:"setup_url"`
	DocsURL     string `json:"docs_url"`

	idPattern *regexp.Regexp
	snippet   string
}

// ValidID reports whether trackingID matches the platform's ID format.
func (d PlatformDescriptor) ValidID(trackingID string) bool {
	return d.idPattern.MatchString(trackingID)
}

// Render substitutes trackingID into the platform's snippet template.
func (d PlatformDescriptor) Render(trackingID string) string {
	return strings.ReplaceAll(d.snippet, idPlaceholder, trackingID)
}

var descriptors = map[string]PlatformDescriptor{
	PlatformMetaPixel: {
		Platform:    PlatformMetaPixel,
		Name:        "Meta Pixel (Facebook)",
		Description: "Track conversions, optimize ads, and build audiences for Facebook and Instagram campaigns",
		IDFormat:    "Pixel ID (e.g., 1234567890123456)",
		SetupURL:    "https://business.facebook.com/events_manager",
		DocsURL:     "https://developers.facebook.com/docs/facebook-pixel",
		idPattern:   regexp.MustCompile(`^\d{15,16}$`),
		snippet: `
<!-- Meta Pixel Code -->
<script>
!function(f,b,e,v,n,t,s)
{if(f.fbq)return;n=f.fbq=function(){n.callMethod?
n.callMethod.apply(n,arguments):n.queue.push(arguments)};
if(!f._fbq)f._fbq=n;n.push=n;n.loaded=!0;n.version='2.0';
n.queue=[];t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];
s.parentNode.insertBefore(t,s)}(window, document,'script',
'https://connect.facebook.net/en_US/fbevents.js');
fbq('init', '__TRACKING_ID__');
fbq('track', 'PageView');
</script>
<noscript><img height="1" width="1" style="display:none"
src="https://www.facebook.com/tr?id=__TRACKING_ID__&ev=PageView&noscript=1"
/></noscript>
<!-- End Meta Pixel Code -->
`,
	},
	PlatformGA4: {
		Platform:    PlatformGA4,
		Name:        "Google Analytics 4",
		Description: "Advanced analytics and insights for your website traffic and user behavior",
		IDFormat:    "Measurement ID (e.g., G-XXXXXXXXXX)",
		SetupURL:    "https://analytics.google.com/",
		DocsURL:     "https://developers.google.com/analytics/devguides/collection/ga4",
		idPattern:   regexp.MustCompile(`^G-[A-Z0-9]{10}$`),
		snippet: `
<!-- Google Analytics 4 -->
<script async src="https://www.googletagmanager.com/gtag/js?id=__TRACKING_ID__"></script>
<script>
  window.dataLayer = window.dataLayer || [];
  function gtag(){dataLayer.push(arguments);}
  gtag('js', new Date());
  gtag('config', '__TRACKING_ID__');
</script>
<!-- End Google Analytics 4 -->
`,
	},
	PlatformGTM: {
		Platform:    PlatformGTM,
		Name:        "Google Tag Manager",
		Description: "Manage all your tracking tags from one central location without code changes",
		IDFormat:    "Container ID (e.g., GTM-XXXXXXX)",
		SetupURL:    "https://tagmanager.google.com/",
		DocsURL:     "https://developers.google.com/tag-manager",
		idPattern:   regexp.MustCompile(`^GTM-[A-Z0-9]{7,8}$`),
		snippet: `
<!-- Google Tag Manager -->
<script>(function(w,d,s,l,i){w[l]=w[l]||[];w[l].push({'gtm.start':
new Date().getTime(),event:'gtm.js'});var f=d.getElementsByTagName(s)[0],
j=d.createElement(s),dl=l!='dataLayer'?'&l='+l:'';j.async=true;j.src=
'https://www.googletagmanager.com/gtm.js?id='+i+dl;f.parentNode.insertBefore(j,f);
})(window,document,'script','dataLayer','__TRACKING_ID__');</script>
<!-- End Google Tag Manager -->

<!-- Google Tag Manager (noscript) -->
<noscript><iframe src="https://www.googletagmanager.com/ns.html?id=__TRACKING_ID__"
height="0" width="0" style="display:none;visibility:hidden"></iframe></noscript>
<!-- End Google Tag Manager (noscript) -->
`,
	},
	PlatformClarity: {
		Platform:    PlatformClarity,
		Name:        "Microsoft Clarity",
		Description: "Free heatmaps and session recordings to understand user behavior",
		IDFormat:    "Project ID (e.g., abcdefghij)",
		SetupURL:    "https://clarity.microsoft.com/",
		DocsURL:     "https://docs.microsoft.com/en-us/clarity/",
		idPattern:   regexp.MustCompile(`^[a-z0-9]{10}$`),
		snippet: `
<!-- Microsoft Clarity -->
<script type="text/javascript">
    (function(c,l,a,r,i,t,y){
        c[a]=c[a]||function(){(c[a].q=c[a].q||[]).push(arguments)};
        t=l.createElement(r);t.async=1;t.src="https://www.clarity.ms/tag/"+i;
        y=l.getElementsByTagName(r)[0];y.parentNode.insertBefore(t,y);
    })(window, document, "clarity", "script", "__TRACKING_ID__");
</script>
<!-- End Microsoft Clarity -->
`,
	},
}

// renderOrder fixes the position of each platform in combined output.
// Tag manager containers load first, heatmaps last.
var renderOrder = []string{PlatformGTM, PlatformGA4, PlatformMetaPixel, PlatformClarity}

// Descriptor returns the descriptor for platform, if it exists.
func Descriptor(platform string) (PlatformDescriptor, bool) {
	d, ok := descriptors[platform]
	return d, ok
}

// Descriptors returns all platform descriptors in render order.
func Descriptors() []PlatformDescriptor {
	out := make([]PlatformDescriptor, 0, len(renderOrder))
	for _, p := range renderOrder {
		out = append(out, descriptors[p])
	}
	return out
}

// platformRank returns the render priority of platform; unknown platforms
// sort last.
func platformRank(platform string) int {
	for i, p := range renderOrder {
		if p == platform {
			return i
		}
	}
	return len(renderOrder)
}
