package generator

import (
	"regexp"
	"strings"
)

var (
	doctypeRe  = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>`)
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>(.*?)</style>`)
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)
	bodyRe     = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	headRe     = regexp.MustCompile(`(?is)<head.*?</head>`)
	htmlTagRe  = regexp.MustCompile(`(?i)</?html[^>]*>`)
	styleCutRe = regexp.MustCompile(`(?is)<style.*?</style>`)
	scriptCut  = regexp.MustCompile(`(?is)<script.*?</script>`)
)

type htmlParts struct {
	body    string
	styles  string
	scripts string
}

// extractFromHTML splits an HTML fragment into body markup, inline styles and
// inline scripts, stripping any full-document wrappers the model emitted.
func extractFromHTML(fragment string) htmlParts {
	if strings.TrimSpace(fragment) == "" {
		return htmlParts{}
	}
	text := doctypeRe.ReplaceAllString(strings.TrimSpace(fragment), "")

	var styles []string
	for _, m := range styleRe.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			styles = append(styles, s)
		}
	}
	var scripts []string
	for _, m := range scriptRe.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			scripts = append(scripts, s)
		}
	}

	stripped := styleCutRe.ReplaceAllString(text, "")
	stripped = scriptCut.ReplaceAllString(stripped, "")

	var body string
	if m := bodyRe.FindStringSubmatch(stripped); m != nil {
		body = strings.TrimSpace(m[1])
	} else {
		tmp := headRe.ReplaceAllString(stripped, "")
		tmp = htmlTagRe.ReplaceAllString(tmp, "")
		body = strings.TrimSpace(tmp)
	}

	return htmlParts{
		body:    body,
		styles:  strings.Join(styles, "\n"),
		scripts: strings.Join(scripts, "\n"),
	}
}
