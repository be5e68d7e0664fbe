package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"linkhive/internal/util"

	"golang.org/x/net/html"
)

// Bookmark is one entry from a browser bookmarks export.
type Bookmark struct {
	URL    string
	Title  string
	Folder string
}

// ParseNetscapeFile reads a Netscape bookmarks HTML export from disk.
// All major browsers produce this format.
func ParseNetscapeFile(path string) ([]Bookmark, error) {
	binary, err := util.IsLikelyBinary(path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect '%s': %w", path, err)
	}
	if binary {
		return nil, fmt.Errorf("'%s' looks like binary data, not a bookmarks export", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	content, err := util.CleanFileContent(data, path)
	if err != nil {
		return nil, err
	}
	return ParseNetscape(strings.NewReader(content))
}

// ParseNetscape parses a bookmarks document, yielding bookmarks in
// document order. A bookmark's folder is the nearest enclosing H3
// header; top-level bookmarks carry an empty folder.
func ParseNetscape(r io.Reader) ([]Bookmark, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks HTML: %w", err)
	}

	var bookmarks []Bookmark
	var folders []string
	pending := ""

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h3":
				// Folder header; it names the DL that follows.
				pending = util.CleanText(extractText(n))
				return
			case "dl":
				folders = append(folders, pending)
				pending = ""
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					traverse(c)
				}
				folders = folders[:len(folders)-1]
				return
			case "a":
				href := strings.TrimSpace(attr(n, "href"))
				if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
					bookmarks = append(bookmarks, Bookmark{
						URL:    href,
						Title:  util.CleanText(extractText(n)),
						Folder: nearestFolder(folders),
					})
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return bookmarks, nil
}

func nearestFolder(folders []string) string {
	for i := len(folders) - 1; i >= 0; i-- {
		if folders[i] != "" {
			return folders[i]
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	if n.Type != html.ElementNode {
		return ""
	}
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := extractText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
