package api

import "github.com/technofatty/technofatty/internal/seo"

type navItem struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

var primaryNav = []navItem{
	{Label: "Home", Href: "/"},
	{Label: "Blog", Href: "/blog/"},
	{Label: "Knowledge", Href: "/knowledge/"},
	{Label: "Tools", Href: "/tools/"},
	{Label: "Case studies", Href: "/case-studies/"},
	{Label: "Community", Href: "/community/"},
	{Label: "Support", Href: "/support/"},
	{Label: "Contact", Href: "/contact/"},
}

var supportFAQ = []seo.Question{
	{
		Question: "How do I subscribe to the newsletter?",
		Answer:   "Enter your email address in the signup form at the bottom of any page.",
	},
	{
		Question: "How do I unsubscribe?",
		Answer:   "Every newsletter includes an unsubscribe link. You can also contact us and we will remove you.",
	},
	{
		Question: "How do I report a community post?",
		Answer:   "Use the report link under the post. A moderator reviews every report.",
	},
	{
		Question: "How do I reset my password?",
		Answer:   "Request a reset link from the login page and follow the instructions we email you.",
	},
}

// navigation marks the primary links active for path
func navigation(path string) []navItem {
	items := make([]navItem, len(primaryNav))
	for i, item := range primaryNav {
		item.Active = seo.IsActive(path, item.Href)
		items[i] = item
	}
	return items
}
