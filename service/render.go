package service

import "github.com/russross/blackfriday"

// RenderHTML turns an assistant reply, which is usually markdown, into HTML.
func RenderHTML(markdown string) string {
	return string(blackfriday.MarkdownCommon([]byte(markdown)))
}
