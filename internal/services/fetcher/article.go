// Package fetcher retrieves raw source material: web articles over HTTP and
// pre-supplied caption files for videos.
package fetcher

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/httpclient"
	"github.com/ternarybob/cursana/internal/models"
	"github.com/ternarybob/cursana/internal/services/textutil"
)

const maxArticleContentChars = 50000

// ArticleFetcher fetches web articles through the shared retrying HTTP
// client and extracts title, metadata, and a markdown rendition of the
// article body.
type ArticleFetcher struct {
	client *httpclient.Client
	logger arbor.ILogger
}

// NewArticleFetcher creates an article fetcher
func NewArticleFetcher(client *httpclient.Client, logger arbor.ILogger) *ArticleFetcher {
	return &ArticleFetcher{
		client: client,
		logger: logger,
	}
}

// articleSelectors are tried in order to locate the main article body
var articleSelectors = []string{
	"article",
	"[role=article]",
	".article-content",
	".post-content",
	".entry-content",
	"main",
	".content",
}

// Fetch retrieves an article and builds a Source carrying the raw HTML plus
// extracted metadata. The markdown rendition of the article body is stored
// in metadata for export and debugging.
func (f *ArticleFetcher) Fetch(ctx context.Context, url string) (*models.Source, error) {
	body, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article %s: %w", url, err)
	}

	html := string(body)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML %s: %w", url, err)
	}

	title := extractTitle(doc)
	markdown := f.articleMarkdown(doc, url)

	source := models.NewSource(common.NewSourceID(), models.SourceTypeArticle, url, title, html)
	source.Metadata = map[string]any{
		"author":       extractMeta(doc, "article:author", "author"),
		"publish_date": extractPublishDate(doc),
		"word_count":   textutil.WordCount(markdown),
		"markdown":     markdown,
	}

	f.logger.Debug().
		Str("url", url).
		Str("title", title).
		Int("html_bytes", len(html)).
		Msg("Fetched article")

	return source, nil
}

// extractTitle tries <title>, then the first <h1>, then og:title
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		return strings.TrimSpace(title)
	}
	return ""
}

// articleMarkdown locates the main article body and converts it to markdown,
// falling back to the whole body element.
func (f *ArticleFetcher) articleMarkdown(doc *goquery.Document, baseURL string) string {
	var container *goquery.Selection
	for _, selector := range articleSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			container = sel
			break
		}
	}
	if container == nil {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		return ""
	}

	container.Find("script, style, nav, header, footer, aside").Remove()

	html, err := goquery.OuterHtml(container)
	if err != nil {
		return ""
	}

	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", baseURL).Msg("Failed to convert article to markdown")
		markdown = strings.TrimSpace(container.Text())
	}

	if len(markdown) > maxArticleContentChars {
		markdown = markdown[:maxArticleContentChars]
	}
	return markdown
}

// extractMeta reads the first matching meta tag by property, then by name
func extractMeta(doc *goquery.Document, property, name string) string {
	if content, ok := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	if content, ok := doc.Find(fmt.Sprintf(`meta[name=%q]`, name)).First().Attr("content"); ok {
		return strings.TrimSpace(content)
	}
	return ""
}

func extractPublishDate(doc *goquery.Document) string {
	if date, ok := doc.Find(`meta[property="article:published_time"]`).First().Attr("content"); ok {
		return strings.TrimSpace(date)
	}
	if date, ok := doc.Find("time").First().Attr("datetime"); ok {
		return strings.TrimSpace(date)
	}
	return ""
}
