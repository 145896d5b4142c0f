// Package webinfo answers questions about live data (prices, weather,
// currency rates, time) and scrapes web search results into prompt blocks.
package webinfo

import "strings"

var searchKeywords = []string{
	"найди", "поиск", "актуальн", "новости", "сейчас", "сегодня",
	"последние", "тренд", "курс", "погода", "цены", "события",
	"что происходит", "статистика", "данные", "информация о",
	"расскажи про", "что нового",
}

var websiteKeywords = []string{
	"создай сайт", "сделай сайт", "лендинг", "веб-сайт", "страницу",
	"сайт для", "сайт о", "дизайн сайта", "сайт компании", "сайт-визитка",
	"интернет-магазин", "портал", "блог", "сайт-одностраничник",
	"сайт с нуля", "web-сайт", "сайт на заказ", "сайт под ключ",
}

var questionWords = []string{"что", "как", "где", "когда", "почему", "зачем", "кто"}

// ShouldSearch reports whether the message asks about live information that
// benefits from a web search pre-step.
func ShouldSearch(message string) bool {
	text := strings.ToLower(message)
	for _, k := range searchKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// ShouldCreateWebsite reports whether the message is a site-building request.
func ShouldCreateWebsite(message string) bool {
	text := strings.ToLower(message)
	for _, k := range websiteKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// ExtractQuery strips leading question words from a message to form a
// search query.
func ExtractQuery(message string) string {
	query := message
	for _, w := range questionWords {
		query = strings.ReplaceAll(query, w, "")
	}
	return strings.TrimSpace(query)
}
