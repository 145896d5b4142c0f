package webinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestShouldSearch(t *testing.T) {
	if !ShouldSearch("найди последние новости") {
		t.Fatalf("news request should trigger search")
	}
	if !ShouldSearch("какая сегодня погода") {
		t.Fatalf("weather request should trigger search")
	}
	if ShouldSearch("привет, как тебя зовут?") {
		t.Fatalf("small talk must not trigger search")
	}
}

func TestShouldCreateWebsite(t *testing.T) {
	if !ShouldCreateWebsite("создай сайт для кофейни") {
		t.Fatalf("site request should be detected")
	}
	if ShouldCreateWebsite("расскажи анекдот") {
		t.Fatalf("chat request must not be detected as site request")
	}
}

func TestExtractQueryStripsQuestionWords(t *testing.T) {
	got := ExtractQuery("что такое квантовый компьютер")
	if strings.Contains(got, "что") {
		t.Fatalf("question word survived: %q", got)
	}
	if !strings.Contains(got, "квантовый компьютер") {
		t.Fatalf("subject lost: %q", got)
	}
}

func TestQuickAnswerBitcoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v3/simple/price") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"bitcoin":{"rub":5000000}}`))
	}))
	defer srv.Close()

	rt := NewRealtime()
	rt.coingeckoBase = srv.URL
	answer, ok := rt.QuickAnswer(context.Background(), "сколько стоит биткоин?")
	if !ok {
		t.Fatalf("expected a quick answer")
	}
	if !strings.Contains(answer, "5000000") {
		t.Fatalf("price missing from answer: %q", answer)
	}
}

func TestQuickAnswerWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Sunny +25°C 40% ↑5km/h"))
	}))
	defer srv.Close()

	rt := NewRealtime()
	rt.wttrBase = srv.URL
	answer, ok := rt.QuickAnswer(context.Background(), "какая погода в москве")
	if !ok {
		t.Fatalf("expected a quick answer")
	}
	if !strings.Contains(answer, "Sunny") {
		t.Fatalf("weather report missing: %q", answer)
	}
}

func TestQuickAnswerCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"RUB":90.5}}`))
	}))
	defer srv.Close()

	rt := NewRealtime()
	rt.exchangeRateBase = srv.URL
	answer, ok := rt.QuickAnswer(context.Background(), "курс 100 usd в rub")
	if !ok {
		t.Fatalf("expected a quick answer")
	}
	if !strings.Contains(answer, "9050.00") {
		t.Fatalf("converted amount missing: %q", answer)
	}
}

func TestQuickAnswerRubleRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/daily_json.js" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"Valute":{"USD":{"CharCode":"USD","Value":92.4},"EUR":{"CharCode":"EUR","Value":100.1}}}`))
	}))
	defer srv.Close()

	rt := NewRealtime()
	rt.cbrBase = srv.URL
	answer, ok := rt.QuickAnswer(context.Background(), "какой сейчас курс доллара?")
	if !ok {
		t.Fatalf("expected a quick answer")
	}
	if !strings.Contains(answer, "USD 92.40") || !strings.Contains(answer, "EUR 100.10") {
		t.Fatalf("rates missing from answer: %q", answer)
	}
}

func TestQuickAnswerFallsThroughOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rt := NewRealtime()
	rt.coingeckoBase = srv.URL
	if _, ok := rt.QuickAnswer(context.Background(), "цена биткоина"); ok {
		t.Fatalf("failed lookup must fall through to the model")
	}
}

func TestQuickAnswerTime(t *testing.T) {
	rt := NewRealtime()
	answer, ok := rt.QuickAnswer(context.Background(), "сколько время в москве")
	if !ok {
		t.Fatalf("expected a time answer")
	}
	if !strings.Contains(answer, "Время в москве") {
		t.Fatalf("unexpected answer: %q", answer)
	}
}

const searchPage = `<html><body>
<div class="result">
  <a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.com%2Fpage&rut=x">Example Title</a>
  <a class="result__snippet">Example snippet text</a>
</div>
<div class="result">
  <a class="result__a" href="https://other.example/direct">Other Title</a>
</div>
</body></html>`

func TestSearchParsesResultsAndUnwrapsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/html/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "golang" {
			t.Errorf("query not forwarded: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	s := NewSearcher()
	s.baseURL = srv.URL
	results, err := s.Search(context.Background(), "golang", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	if results[0].URL != "https://example.com/page" {
		t.Fatalf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Title != "Example Title" || results[0].Description != "Example snippet text" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
}

func TestFetchPageStripsScriptsAndCapsLength(t *testing.T) {
	long := strings.Repeat("слово ", 600)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><script>var x=1</script><p>" + long + "</p></body></html>"))
	}))
	defer srv.Close()

	s := NewSearcher()
	text, err := s.FetchPage(context.Background(), srv.URL, 100)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if strings.Contains(text, "var x") {
		t.Fatalf("script leaked: %q", text)
	}
	if !strings.HasSuffix(text, "...") {
		t.Fatalf("long page should be truncated: %q", text)
	}
	if len([]rune(text)) > 110 {
		t.Fatalf("cap not applied, len=%d", len([]rune(text)))
	}
}

func TestFormatResults(t *testing.T) {
	block := FormatResults([]Result{
		{Title: "T1", URL: "https://a.example", Description: "D1", Content: "C1"},
	})
	for _, want := range []string{"T1", "https://a.example", "D1", "C1"} {
		if !strings.Contains(block, want) {
			t.Fatalf("formatted block missing %q:\n%s", want, block)
		}
	}
	if FormatResults(nil) != "Результаты поиска не найдены." {
		t.Fatalf("empty results message wrong")
	}
}

func TestSearcherTimeoutConfigured(t *testing.T) {
	s := NewSearcher()
	if s.httpClient.Timeout != 10*time.Second {
		t.Fatalf("timeout %v", s.httpClient.Timeout)
	}
}
