package generator

import (
	"fmt"
	"strings"

	"windexai/pkg/domain"
)

// Combine assembles generated code parts into the final artifact. Lite mode
// yields a single self-contained HTML document; pro mode yields a Next.js
// project rendered as a multi-file text bundle.
func Combine(parts []domain.CodePart, mode string) (string, error) {
	switch mode {
	case "lite":
		return combineLite(parts), nil
	case "pro":
		return combinePro(parts), nil
	default:
		return "", fmt.Errorf("unsupported mode %q", mode)
	}
}

func combineLite(parts []domain.CodePart) string {
	var bodies, css, js []string
	for _, part := range parts {
		switch part.Type {
		case "html":
			extracted := extractFromHTML(part.Code)
			if extracted.styles != "" {
				css = append(css, extracted.styles)
			}
			if extracted.scripts != "" {
				js = append(js, extracted.scripts)
			}
			if extracted.body != "" {
				bodies = append(bodies, extracted.body)
			}
		case "css":
			if code := strings.TrimSpace(part.Code); code != "" {
				css = append(css, code)
			}
		case "javascript":
			// Models occasionally emit stray "css"/"html" marker lines.
			code := strayMarkRe.ReplaceAllString(part.Code, "")
			if code = strings.TrimSpace(code); code != "" {
				js = append(js, code)
			}
		}
	}

	htmlContent := strings.Join(bodies, "\n")
	if htmlContent == "" {
		htmlContent = "<!-- Error generating html code -->"
	}
	cssContent := strings.Join(css, "\n")
	if cssContent == "" {
		cssContent = "/* No CSS generated */"
	}
	jsContent := strings.Join(js, "\n")
	if jsContent == "" {
		jsContent = "// No JavaScript generated"
	}

	return strings.NewReplacer(
		"{{CSS}}", baseCSS+"\n\n/* Combined CSS from generated parts */\n"+cssContent,
		"{{HTML}}", htmlContent,
		"{{JS}}", jsContent,
	).Replace(baseHTMLTemplate)
}

// combinePro renders a static Next.js project skeleton with the generated
// markup embedded in the main page. Files are separated by headers so the
// client can split the bundle.
func combinePro(parts []domain.CodePart) string {
	var bodies, css []string
	for _, part := range parts {
		switch part.Type {
		case "html":
			if extracted := extractFromHTML(part.Code); extracted.body != "" {
				bodies = append(bodies, extracted.body)
			}
		case "css":
			if code := strings.TrimSpace(part.Code); code != "" {
				css = append(css, code)
			}
		}
	}

	var b strings.Builder
	b.WriteString("=== FILE: package.json ===\n")
	b.WriteString(`{
  "name": "generated-site",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "dev": "next dev",
    "build": "next build",
    "start": "next start"
  },
  "dependencies": {
    "next": "14.2.3",
    "react": "^18",
    "react-dom": "^18"
  }
}
`)
	b.WriteString("\n=== FILE: next.config.js ===\n")
	b.WriteString("/** @type {import('next').NextConfig} */\nconst nextConfig = {};\nmodule.exports = nextConfig;\n")
	b.WriteString("\n=== FILE: app/layout.js ===\n")
	b.WriteString(`import './globals.css'

export const metadata = { title: 'Generated Website' }

export default function RootLayout({ children }) {
  return (
    <html lang="ru">
      <body>{children}</body>
    </html>
  )
}
`)
	b.WriteString("\n=== FILE: app/globals.css ===\n")
	b.WriteString(baseCSS)
	b.WriteString("\n")
	b.WriteString(strings.Join(css, "\n"))
	b.WriteString("\n\n=== FILE: app/page.js ===\n")
	b.WriteString("export default function Page() {\n  return (\n    <main dangerouslySetInnerHTML={{ __html: `")
	b.WriteString(strings.ReplaceAll(strings.Join(bodies, "\n"), "`", "'"))
	b.WriteString("` }} />\n  )\n}\n")
	return b.String()
}
