// Package feed builds the RSS syndication document for the blog.
package feed

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/the-snesler/samnesler.com/internal/core/content"
)

const maxFeedItems = 100

// =============================================================================
// Sanitization
// =============================================================================

// policy is the syndication allow-list: bluemonday's user-generated-content
// safe-tag set, plus inline images so post illustrations survive in readers.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	return p
}()

// SanitizeHTML scrubs rendered post HTML down to the feed allow-list.
func SanitizeHTML(rendered string) string {
	return policy.Sanitize(rendered)
}

// =============================================================================
// Site Metadata
// =============================================================================

// Site describes the channel-level feed fields.
type Site struct {
	BaseURL     string
	Title       string
	Description string
}

func (s Site) baseLink() string {
	trimmed := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

// PostURL returns the absolute URL for a post.
func (s Site) PostURL(slug string) string {
	return s.baseLink() + "/posts/" + slug
}

// =============================================================================
// RSS Document
// =============================================================================

// BuildRSS renders an RSS 2.0 document for the given posts. Posts are
// assumed visible and date-sorted newest first; entry content is sanitized
// per the feed allow-list.
func BuildRSS(site Site, posts []content.Post, generatedAt time.Time) string {
	if len(posts) > maxFeedItems {
		posts = posts[:maxFeedItems]
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">` + "\n")
	b.WriteString("  <channel>\n")
	b.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(site.Title)))
	b.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(site.baseLink())))
	b.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(site.Description)))
	b.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))

	for _, post := range posts {
		pub := post.PublishedAt
		if pub.IsZero() {
			pub = generatedAt
		}
		link := site.PostURL(post.Slug)

		b.WriteString("    <item>\n")
		b.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(post.Title)))
		b.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(link)))
		b.WriteString(fmt.Sprintf("      <guid>%s</guid>\n", escapeXML(link)))
		b.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", pub.UTC().Format(time.RFC1123Z)))
		if post.Summary != "" {
			b.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(post.Summary)))
		}
		b.WriteString(fmt.Sprintf("      <content:encoded><![CDATA[%s]]></content:encoded>\n", SanitizeHTML(post.HTML)))
		b.WriteString("    </item>\n")
	}

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>\n")
	return b.String()
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}
