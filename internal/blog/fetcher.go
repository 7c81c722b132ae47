package blog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	defaultMaxBodyBytes = 4 << 20
	defaultMaxTextChars = 12000
	userAgent           = "blog-analyzer/1.0 (+https://github.com/blog-analyzer)"
)

// ErrEmptyPost is returned when no readable text could be extracted.
var ErrEmptyPost = errors.New("blog post has no readable text")

// Post is the readable content of one blog page.
type Post struct {
	URL      string
	Title    string
	Text     string
	Links    []string
	Language string
}

// Fetcher downloads blog pages and extracts their article text.
type Fetcher struct {
	client       *http.Client
	detector     *LanguageDetector
	maxBodyBytes int64
	maxTextChars int
}

// NewFetcher constructs a Fetcher. A nil client gets a 20s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{
		client:       client,
		detector:     NewLanguageDetector(),
		maxBodyBytes: defaultMaxBodyBytes,
		maxTextChars: defaultMaxTextChars,
	}
}

// Fetch downloads rawURL and returns its readable content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Post, error) {
	body, finalURL, err := f.getHTML(ctx, rawURL)
	if err != nil {
		return Post{}, err
	}
	return f.Parse(finalURL, body)
}

// Parse extracts the article from html. pageURL resolves relative links.
func (f *Fetcher) Parse(pageURL string, html []byte) (Post, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Post{}, fmt.Errorf("parse page url: %w", err)
	}

	// Pages readability cannot score fall back to the whole document.
	parser := readability.NewParser()
	article, err := parser.Parse(bytes.NewReader(html), parsedURL)
	if err != nil {
		article = readability.Article{}
	}

	content := article.Content
	if strings.TrimSpace(content) == "" {
		content = string(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return Post{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := blockText(doc)
	if text == "" {
		text = collapseText(doc.Text())
	}
	if text == "" {
		return Post{}, ErrEmptyPost
	}
	text = truncateRunes(text, f.maxTextChars)

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	return Post{
		URL:      parsedURL.String(),
		Title:    title,
		Text:     text,
		Links:    absoluteLinks(doc, parsedURL),
		Language: f.detector.Detect(text),
	}, nil
}

func (f *Fetcher) getHTML(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return body, finalURL, nil
}

func blockText(doc *goquery.Document) string {
	var parts []string
	doc.Find("h1,h2,h3,p,li,blockquote").Each(func(i int, s *goquery.Selection) {
		if t := collapseText(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func absoluteLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		key := abs.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		links = append(links, key)
	})
	return links
}

func collapseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
