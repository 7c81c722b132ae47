package openai

import (
	"fmt"
	"strings"

	"blog-analyzer-backend/internal/blog"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPrompt        = "You are a blog personality analysis engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
	maxPromptLinks      = 20
)

const schemaPrompt = `Read the blog post and describe its author.
Return one JSON object with exactly these keys:
- "summary": a short title for the author's persona
- "summary_explanation": two or three sentences explaining the persona
- "mbti": a four-letter personality code, uppercase, one letter from each of E/I, S/N, T/F, J/P
- "mbti_explanation": an object with keys "E/I", "S/N", "T/F", "J/P", each a one-sentence reason
- "keywords": three to five hashtags starting with "#"
- "quotes": up to three objects with "quote", "quote_explanation" and "source_link" (an absolute URL from the post)
- "content_ratio": an object with integer percentages for "expertise", "essay", "travel", "self_improvement"
Write every text value in the language of the post ({{LANGUAGE}}).`

// BuildPrompt creates the chat messages for analyzing post.
func BuildPrompt(post blog.Post) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "developer", Content: developerPrompt(post.Language)},
		{Role: "user", Content: buildUserPrompt(post)},
	}
}

func buildFixPrompt(post blog.Post, raw []byte, cause error) []Message {
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: developerPrompt(post.Language)},
		{Role: "user", Content: fixUserPrompt(raw, cause)},
	}
}

func developerPrompt(language string) string {
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = "unknown, match the post"
	}
	return strings.ReplaceAll(schemaPrompt, "{{LANGUAGE}}", lang)
}

func buildUserPrompt(post blog.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Post URL:\n%s\n\n", post.URL)
	if title := strings.TrimSpace(post.Title); title != "" {
		fmt.Fprintf(&b, "Title:\n%s\n\n", title)
	}
	if len(post.Links) > 0 {
		links := post.Links
		if len(links) > maxPromptLinks {
			links = links[:maxPromptLinks]
		}
		fmt.Fprintf(&b, "Links in post:\n%s\n\n", strings.Join(links, "\n"))
	}
	fmt.Fprintf(&b, "Post Text:\n%s", post.Text)
	return b.String()
}

func fixUserPrompt(raw []byte, cause error) string {
	reason := "invalid JSON"
	if cause != nil {
		reason = cause.Error()
	}
	return fmt.Sprintf("The previous output was rejected (%s). Fix this JSON to match the schema exactly. Output JSON only:\n%s", reason, string(raw))
}
