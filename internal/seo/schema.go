package seo

import (
	"time"
)

// Crumb is one breadcrumb entry.
type Crumb struct {
	Name string
	URL  string
}

// Question is one FAQ entry.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Graph wraps nodes in a single @graph document, skipping nil nodes.
func Graph(nodes ...Node) Node {
	var graph []Node
	for _, n := range nodes {
		if n != nil {
			graph = append(graph, n)
		}
	}
	if len(graph) == 0 {
		return nil
	}
	return Node{"@context": schemaContext, "@graph": graph}
}

// BlogPosting describes a blog post. It returns nil when headline or image
// is missing, or when the publish time is naive.
func BlogPosting(url, headline, image string, published, modified time.Time) Node {
	return article("BlogPosting", url, headline, image, published, modified)
}

// Article describes a knowledge article or case study.
func Article(url, headline, image string, published, modified time.Time) Node {
	return article("Article", url, headline, image, published, modified)
}

func article(kind, url, headline, image string, published, modified time.Time) Node {
	if headline == "" || image == "" {
		return nil
	}
	if modified.IsZero() {
		modified = published
	}
	datePublished, err := ToISO8601(published)
	if err != nil {
		return nil
	}
	dateModified, err := ToISO8601(modified)
	if err != nil {
		return nil
	}
	return Node{
		"@type":            kind,
		"@id":              url + "#article",
		"url":              url,
		"headline":         headline,
		"image":            image,
		"datePublished":    datePublished,
		"dateModified":     dateModified,
		"mainEntityOfPage": url,
	}
}

// WithPublisher attaches an Organization as publisher.
func WithPublisher(n Node, publisher Node) Node {
	if n != nil && publisher != nil {
		n["publisher"] = publisher
	}
	return n
}

// Organization requires both name and url.
func Organization(name, url, logo string) Node {
	if name == "" || url == "" {
		return nil
	}
	n := Node{"@type": "Organization", "name": name, "url": url}
	if logo != "" {
		n["logo"] = logo
	}
	return n
}

// Breadcrumbs builds a BreadcrumbList anchored at pageURL.
func Breadcrumbs(pageURL string, crumbs []Crumb) Node {
	if len(crumbs) == 0 {
		return nil
	}
	items := make([]Node, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, Node{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     c.URL,
		})
	}
	return Node{
		"@type":           "BreadcrumbList",
		"@id":             pageURL + "#breadcrumb",
		"itemListElement": items,
	}
}

// FAQPage requires at least one question.
func FAQPage(pageURL string, questions []Question) Node {
	if len(questions) == 0 {
		return nil
	}
	entities := make([]Node, 0, len(questions))
	for _, q := range questions {
		entities = append(entities, Node{
			"@type":          "Question",
			"name":           q.Question,
			"acceptedAnswer": Node{"@type": "Answer", "text": q.Answer},
		})
	}
	return Node{
		"@context":   schemaContext,
		"@type":      "FAQPage",
		"@id":        pageURL + "#webpage",
		"mainEntity": entities,
	}
}

// CollectionPage describes a hub page.
func CollectionPage(pageURL, name, description string) Node {
	return Node{
		"@type":       "CollectionPage",
		"@id":         pageURL + "#webpage",
		"url":         pageURL,
		"name":        name,
		"description": description,
	}
}

// ItemList lists linked entries in order.
func ItemList(pageURL string, entries []Crumb) Node {
	if len(entries) == 0 {
		return nil
	}
	items := make([]Node, 0, len(entries))
	for i, e := range entries {
		items = append(items, Node{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     e.Name,
			"url":      e.URL,
		})
	}
	return Node{
		"@type":           "ItemList",
		"@id":             pageURL + "#itemlist",
		"itemListElement": items,
	}
}
