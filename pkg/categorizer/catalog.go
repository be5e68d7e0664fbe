package categorizer

import (
	"regexp"
	"strings"
)

// CategoryDefinition describes one catalog entry. All matching data is
// declarative: adding or tuning a category is a data change here, never
// a code change in the scoring engine.
//
// Keywords are matched case-insensitively as substrings of the link
// title and description. Domains are matched against the normalized URL
// host: entries containing a dot match exactly or as a subdomain
// suffix, dotless entries match as host fragments. URLPatterns run
// against the full lowercased URL.
type CategoryDefinition struct {
	Name        string
	Description string
	Keywords    []string
	Domains     []string
	URLPatterns []*regexp.Regexp
}

// GeneralCategory is the named fallback bucket. It carries no matching
// rules, so scoring never selects it; it exists so user-facing surfaces
// have a name for unclassified links.
const GeneralCategory = "General"

// catalog is ordered: earlier entries win score ties.
var catalog = []CategoryDefinition{
	{
		Name:        "Development",
		Description: "Programming, tools and technical documentation",
		Keywords: []string{
			"programming", "developer", "coding", "software",
			"api", "sdk", "framework", "library", "open source",
			"documentation", "debugging", "devops", "kubernetes",
			"database", "command line", "refactoring",
		},
		Domains: []string{
			"github.com", "gitlab.com", "bitbucket.org",
			"stackoverflow.com", "stackexchange.com",
			"developer.mozilla.org", "news.ycombinator.com",
			"npmjs.com", "pypi.org", "pkg.go.dev", "golang.org",
			"rust-lang.org", "python.org", "dev.to",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/pull/\d+`),
			regexp.MustCompile(`/issues/\d+`),
			regexp.MustCompile(`/blob/`),
			regexp.MustCompile(`/docs/api`),
		},
	},
	{
		Name:        "Social Media",
		Description: "Social networks and community discussion",
		Keywords: []string{
			"social media", "tweet", "hashtag", "followers",
			"influencer", "community", "viral", "subreddit",
		},
		Domains: []string{
			"twitter.com", "x.com", "facebook.com", "instagram.com",
			"linkedin.com", "reddit.com", "threads.net",
			"mastodon.social", "bsky.app", "snapchat.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/status/\d+`),
			regexp.MustCompile(`/r/\w+`),
			regexp.MustCompile(`/hashtag/`),
		},
	},
	{
		Name:        "Video",
		Description: "Video platforms and streams",
		Keywords: []string{
			"video", "watch", "episode", "stream", "streaming",
			"trailer", "webinar", "documentary", "vlog",
		},
		Domains: []string{
			"youtube.com", "youtu.be", "vimeo.com", "twitch.tv",
			"dailymotion.com", "tiktok.com", "loom.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/watch`),
			regexp.MustCompile(`/shorts/`),
			regexp.MustCompile(`/videos?/`),
		},
	},
	{
		Name:        "News",
		Description: "News outlets and current events",
		Keywords: []string{
			"news", "breaking", "headlines", "politics", "election",
			"economy", "investigation", "correspondent",
		},
		Domains: []string{
			"nytimes.com", "bbc.com", "bbc.co.uk", "cnn.com",
			"theguardian.com", "reuters.com", "apnews.com",
			"bloomberg.com", "washingtonpost.com", "aljazeera.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/news/`),
			regexp.MustCompile(`/article/`),
			regexp.MustCompile(`/politics/`),
		},
	},
	{
		Name:        "Design",
		Description: "Design inspiration, assets and tools",
		Keywords: []string{
			"design", "designer", "typography", "illustration",
			"branding", "color palette", "mockup", "user interface",
			"user experience", "wireframe", "logo",
		},
		Domains: []string{
			"dribbble.com", "behance.net", "figma.com", "canva.com",
			"pinterest.com", "awwwards.com", "unsplash.com",
			"fonts.google.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/shots/`),
			regexp.MustCompile(`/gallery/`),
		},
	},
	{
		Name:        "Business",
		Description: "Business, startups and finance",
		Keywords: []string{
			"business", "startup", "entrepreneur", "marketing",
			"sales", "revenue", "investment", "funding",
			"venture capital", "strategy", "saas", "acquisition",
		},
		Domains: []string{
			"forbes.com", "hbr.org", "businessinsider.com",
			"wsj.com", "crunchbase.com", "techcrunch.com",
			"wellfound.com",
		},
	},
	{
		Name:        "Education",
		Description: "Courses, learning and reference",
		Keywords: []string{
			"course", "learn", "learning", "tutorial", "lesson",
			"lecture", "education", "university", "certificate",
			"curriculum", "how to", "study",
		},
		Domains: []string{
			"coursera.org", "udemy.com", "edx.org",
			"khanacademy.org", "wikipedia.org", "duolingo.com",
			"brilliant.org", "ocw.mit.edu", "skillshare.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/learn/`),
			regexp.MustCompile(`/courses?/`),
			regexp.MustCompile(`/tutorials?/`),
		},
	},
	{
		Name:        "Entertainment",
		Description: "Movies, shows and pop culture",
		Keywords: []string{
			"movie", "film", "tv show", "series", "season",
			"celebrity", "comedy", "anime", "box office",
		},
		Domains: []string{
			"netflix.com", "hulu.com", "disneyplus.com", "imdb.com",
			"rottentomatoes.com", "max.com", "primevideo.com",
			"metacritic.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/title/`),
			regexp.MustCompile(`/movie/`),
		},
	},
	{
		Name:        "Shopping",
		Description: "Stores, products and deals",
		Keywords: []string{
			"buy", "price", "discount", "deal", "coupon", "sale",
			"shopping", "free shipping", "in stock",
		},
		Domains: []string{
			// amazon and ebay are fragments: they cover the
			// country storefronts (amazon.de, ebay.co.uk, ...).
			"amazon", "ebay", "etsy.com", "aliexpress.com",
			"walmart.com", "target.com", "bestbuy.com", "temu.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/product/`),
			regexp.MustCompile(`/dp/`),
			regexp.MustCompile(`/cart`),
		},
	},
	{
		Name:        "Music",
		Description: "Music streaming, artists and releases",
		Keywords: []string{
			"music", "song", "album", "playlist", "artist", "band",
			"lyrics", "concert", "vinyl",
		},
		Domains: []string{
			"spotify.com", "soundcloud.com", "bandcamp.com",
			"music.apple.com", "genius.com", "last.fm", "tidal.com",
		},
		URLPatterns: []*regexp.Regexp{
			regexp.MustCompile(`/track/`),
			regexp.MustCompile(`/album/`),
		},
	},
	{
		Name:        GeneralCategory,
		Description: "Everything else",
	},
}

// Catalog returns the built-in category definitions in priority order.
// The returned slice is shared; callers must treat it as read-only.
func Catalog() []CategoryDefinition {
	return catalog
}

// CategoryNames returns the catalog names in priority order.
func CategoryNames() []string {
	names := make([]string, len(catalog))
	for i, def := range catalog {
		names[i] = def.Name
	}
	return names
}

// CategoryByName looks up a catalog entry case-insensitively.
func CategoryByName(name string) (CategoryDefinition, bool) {
	for _, def := range catalog {
		if strings.EqualFold(def.Name, name) {
			return def, true
		}
	}
	return CategoryDefinition{}, false
}

// CategoryRank returns the catalog position of a category, or the
// catalog length for unknown names. Lower ranks win ties.
func CategoryRank(name string) int {
	for i, def := range catalog {
		if strings.EqualFold(def.Name, name) {
			return i
		}
	}
	return len(catalog)
}
