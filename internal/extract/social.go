package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/site-audit/internal/audit"
)

type socialPlatform struct {
	name     string
	patterns []*regexp.Regexp
	// excluded first path segments that are share/intent endpoints, not profiles
	excluded map[string]bool
}

func excluded(segments ...string) map[string]bool {
	m := make(map[string]bool, len(segments))
	for _, s := range segments {
		m[s] = true
	}
	return m
}

var socialPlatforms = []socialPlatform{
	{
		name: "twitter",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:www\.|mobile\.)?(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})(?:/|$|\?)`),
		},
		excluded: excluded("share", "intent", "home", "search", "hashtag", "i"),
	},
	{
		name: "facebook",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?(?:facebook\.com|fb\.com)/([A-Za-z0-9.\-]+)(?:/|$|\?)`),
		},
		excluded: excluded("sharer", "sharer.php", "share.php", "dialog", "plugins", "tr"),
	},
	{
		name: "instagram",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:www\.)?(?:instagram\.com|instagr\.am)/([A-Za-z0-9_.]+)(?:/|$|\?)`),
		},
		excluded: excluded("p", "explore", "accounts"),
	},
	{
		name: "linkedin",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:[a-z]{2,3}\.)?linkedin\.com/(?:company|in|school|showcase)/([A-Za-z0-9_\-]+)`),
		},
	},
	{
		name: "youtube",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?youtube\.com/(@[A-Za-z0-9_.\-]+|c/[A-Za-z0-9_\-]+|channel/[A-Za-z0-9_\-]+|user/[A-Za-z0-9_\-]+)`),
		},
	},
	{
		name: "tiktok",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:www\.)?tiktok\.com/(@[A-Za-z0-9_.]+)`),
		},
	},
	{
		name: "github",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:www\.)?github\.com/([A-Za-z0-9\-]+)(?:/|$|\?)`),
		},
		excluded: excluded("features", "pricing", "about", "login", "sponsors", "marketplace", "topics"),
	},
	{
		name: "pinterest",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(?:[a-z]{2,3}\.)?pinterest\.[a-z.]+/([A-Za-z0-9_]+)(?:/|$|\?)`),
		},
		excluded: excluded("pin"),
	},
}

// SocialProfiles keeps the first profile link found per platform.
func SocialProfiles(doc *Document) audit.Social {
	profiles := map[string]string{}
	doc.Sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := doc.Resolve(s.AttrOr("href", ""))
		for _, p := range socialPlatforms {
			if _, done := profiles[p.name]; done {
				continue
			}
			if p.match(href) {
				profiles[p.name] = href
				return
			}
		}
	})
	return audit.Social{Profiles: profiles, ProfileCount: len(profiles)}
}

func (p socialPlatform) match(href string) bool {
	for _, re := range p.patterns {
		m := re.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		if p.excluded[strings.ToLower(m[1])] {
			return false
		}
		return true
	}
	return false
}
