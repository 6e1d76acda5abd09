package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRelativePaths converts relative img src and a href values to
// absolute file:// URLs resolved against baseDir, so the layout engine can
// load local assets after the document is written to a temporary location.
// Paths escaping baseDir are left alone, as are URLs, data URIs, anchors,
// and absolute paths. An empty baseDir is a no-op.
func RewriteRelativePaths(htmlContent, baseDir string) (string, error) {
	if baseDir == "" {
		return htmlContent, nil
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	doc, fragment, err := parseDocOrFragment(htmlContent)
	if err != nil {
		return "", err
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img":
				rewriteAttr(n, "src", absBase)
			case "a":
				rewriteAttr(n, "href", absBase)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var buf strings.Builder
	if fragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
	} else if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// parseDocOrFragment parses full documents directly and fragments in a body
// context, so fragments do not grow <html><body> wrappers on render.
func parseDocOrFragment(content string) (*html.Node, bool, error) {
	lower := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	bodyCtx := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(content), bodyCtx)
	if err != nil {
		return nil, true, err
	}
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

func rewriteAttr(n *html.Node, name, baseDir string) {
	for i, attr := range n.Attr {
		if attr.Key != name || !isRewritable(attr.Val) {
			continue
		}
		abs := filepath.Join(baseDir, attr.Val)
		if !underDir(abs, baseDir) {
			continue
		}
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		n.Attr[i].Val = u.String()
	}
}

// isRewritable reports whether a path is a plain relative file reference.
func isRewritable(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") {
		return false
	}
	for _, prefix := range []string{"http://", "https://", "file://", "data:", "//"} {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return !filepath.IsAbs(path)
}

// underDir guards against ../ traversal out of the base directory.
func underDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir) + string(filepath.Separator)
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}
