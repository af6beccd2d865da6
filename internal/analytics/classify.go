package analytics

import (
	"net/url"
	"strings"
)

// Category is the origin type of a cited source.
type Category string

const (
	CategoryBrand     Category = "brand"
	CategoryCommunity Category = "community"
	CategoryNews      Category = "news"
	CategoryBlog      Category = "blog"
	CategoryReview    Category = "review"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBrand, CategoryCommunity, CategoryNews, CategoryBlog, CategoryReview, CategoryOther,
}

// Curated substrings, matched case-insensitively against the domain.
var (
	brandDomains = []string{
		"shopify", "wix.com", "woocommerce", "bigcommerce", "squarespace",
		"magento", "adobe.com", "salesforce.com", "godaddy.com", "hostinger",
		"elementor.com", "stripe.com", "sumup.com", "jumpseller.com",
	}
	communityDomains = []string{
		"reddit", "quora", "youtube", "stackoverflow", "stackexchange",
		"news.ycombinator", "facebook.com", "discord", "community.", "forum",
	}
	newsDomains = []string{
		"forbes", "cnbc", "techcrunch", "theverge", "bloomberg", "reuters",
		"nytimes", "wsj.com", "bbc.", "businessinsider", "zdnet", "cnet.com",
		"wired.com", "entrepreneur.com", "startups.co.uk",
	}
	blogPlatformPatterns = []string{
		"blog.", ".blog", "medium.com", "substack", "wordpress.com", "blogspot",
		"hashnode", "ghost.io", "dev.to",
	}
	reviewDomains = []string{
		"g2.com", "capterra", "trustpilot", "trustradius", "getapp",
		"softwareadvice", "pcmag", "techradar", "tomsguide", "websiteplanet",
		"sitebuilderreport",
	}
	blogPathSegments = []string{"/blog/", "/blogs/"}
)

// ClassifySource assigns a source to exactly one category. Rules are
// evaluated in order and the first match wins:
//
//  1. URL path contains a blog segment ("/blog/", "/blogs/")  -> blog
//  2. domain matches a brand or vendor                        -> brand
//  3. domain matches a community or forum                     -> community
//  4. domain matches a news outlet                            -> news
//  5. domain or URL matches a blog platform pattern           -> blog
//  6. domain matches a review platform                        -> review
//  7. otherwise                                               -> other
//
// rawURL may be empty, in which case only the domain rules apply.
func ClassifySource(domain, rawURL string) Category {
	d := strings.ToLower(strings.TrimSpace(domain))
	u := strings.ToLower(strings.TrimSpace(rawURL))

	if path := urlPath(u); path != "" && containsAny(path, blogPathSegments) {
		return CategoryBlog
	}
	switch {
	case containsAny(d, brandDomains):
		return CategoryBrand
	case containsAny(d, communityDomains):
		return CategoryCommunity
	case containsAny(d, newsDomains):
		return CategoryNews
	case containsAny(d, blogPlatformPatterns) || containsAny(urlHost(u), blogPlatformPatterns):
		return CategoryBlog
	case containsAny(d, reviewDomains):
		return CategoryReview
	}
	return CategoryOther
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func urlPath(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.Path == "" {
		return ""
	}
	return parsed.Path
}

func urlHost(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Host
}
