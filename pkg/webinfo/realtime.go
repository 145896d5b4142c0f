package webinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Realtime answers price/weather/currency/time questions directly from
// public APIs, bypassing the model.
type Realtime struct {
	httpClient       *http.Client
	coingeckoBase    string
	wttrBase         string
	exchangeRateBase string
	cbrBase          string
}

func NewRealtime() *Realtime {
	return NewRealtimeWithClient(&http.Client{Timeout: 5 * time.Second})
}

// NewRealtimeWithClient uses the given HTTP client, e.g. one routed through
// a proxy.
func NewRealtimeWithClient(client *http.Client) *Realtime {
	return &Realtime{
		httpClient:       client,
		coingeckoBase:    "https://api.coingecko.com",
		wttrBase:         "https://wttr.in",
		exchangeRateBase: "https://api.exchangerate-api.com",
		cbrBase:          "https://www.cbr-xml-daily.ru",
	}
}

// RE2 word boundaries are ASCII-only, so the Cyrillic patterns avoid \b.
var (
	bitcoinRe  = regexp.MustCompile(`(?i)(биткоин|биткойн|bitcoin)`)
	weatherRe  = regexp.MustCompile(`(?i)(погода|weather).*?\s(?:в|in)\s+([а-яёa-z][а-яёa-z\s-]*)`)
	currencyRe = regexp.MustCompile(`(?i)(курс|exchange).*?(\d+(?:\.\d+)?)\s*([a-zA-Z]{3})\s*(?:в|to)\s*([a-zA-Z]{3})`)
	rubRatesRe = regexp.MustCompile(`(?i)курс(ы)?\s+(доллара|евро|валют)`)
	timeRe     = regexp.MustCompile(`(?i)(время|time).*?\s(?:в|in)\s+([а-яёa-z][а-яёa-z\s-]*)`)
)

// cbrQuoted is the subset of the Bank of Russia feed shown in rate answers.
var cbrQuoted = []string{"USD", "EUR", "GBP", "CNY", "JPY"}

var cityZones = map[string]string{
	"москва":   "Europe/Moscow",
	"moscow":   "Europe/Moscow",
	"лондон":   "Europe/London",
	"london":   "Europe/London",
	"нью-йорк": "America/New_York",
	"new york": "America/New_York",
	"токио":    "Asia/Tokyo",
	"tokyo":    "Asia/Tokyo",
}

// QuickAnswer tries to answer the message from a live data source. The second
// return value reports whether an answer was produced; lookup failures simply
// fall through to the model.
func (r *Realtime) QuickAnswer(ctx context.Context, message string) (string, bool) {
	text := strings.ToLower(message)

	if bitcoinRe.MatchString(text) {
		if price, err := r.BitcoinPriceRUB(ctx); err == nil {
			return fmt.Sprintf("Текущая цена биткоина: %.0f RUB", price), true
		}
	}
	if m := weatherRe.FindStringSubmatch(text); m != nil {
		city := strings.TrimSpace(m[2])
		if report, err := r.Weather(ctx, city); err == nil {
			return fmt.Sprintf("Погода в %s: %s", city, report), true
		}
	}
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		amount, _ := strconv.ParseFloat(m[2], 64)
		from, to := strings.ToUpper(m[3]), strings.ToUpper(m[4])
		if result, err := r.Convert(ctx, amount, from, to); err == nil {
			return fmt.Sprintf("%s %s = %.2f %s", m[2], from, result, to), true
		}
	}
	if rubRatesRe.MatchString(text) {
		if rates, err := r.CBRRates(ctx); err == nil {
			if answer := formatCBRAnswer(rates); answer != "" {
				return answer, true
			}
		}
	}
	if m := timeRe.FindStringSubmatch(text); m != nil {
		city := strings.TrimSpace(m[2])
		if zone, ok := cityZones[strings.ToLower(city)]; ok {
			if loc, err := time.LoadLocation(zone); err == nil {
				now := time.Now().In(loc)
				return fmt.Sprintf("Время в %s: %s", city, now.Format("15:04:05 MST")), true
			}
		}
	}
	return "", false
}

// BitcoinPriceRUB returns the current bitcoin price in rubles from CoinGecko.
func (r *Realtime) BitcoinPriceRUB(ctx context.Context) (float64, error) {
	var out map[string]map[string]float64
	err := r.getJSON(ctx, r.coingeckoBase+"/api/v3/simple/price?ids=bitcoin&vs_currencies=rub", &out)
	if err != nil {
		return 0, err
	}
	price, ok := out["bitcoin"]["rub"]
	if !ok || price == 0 {
		return 0, fmt.Errorf("no bitcoin price in response")
	}
	return price, nil
}

// Weather returns a one-line weather report for the city from wttr.in.
func (r *Realtime) Weather(ctx context.Context, city string) (string, error) {
	u := r.wttrBase + "/" + url.PathEscape(city) + "?format=%C+%t+%h+%w"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather api: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", err
	}
	report := strings.TrimSpace(string(body))
	if report == "" || strings.HasPrefix(report, "Sorry") {
		return "", fmt.Errorf("no weather for %q", city)
	}
	return report, nil
}

// Convert converts an amount between currencies using exchangerate-api.
func (r *Realtime) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	var out struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := r.getJSON(ctx, r.exchangeRateBase+"/v4/latest/"+url.PathEscape(strings.ToUpper(from)), &out)
	if err != nil {
		return 0, err
	}
	rate, ok := out.Rates[strings.ToUpper(to)]
	if !ok {
		return 0, fmt.Errorf("no rate for %s", to)
	}
	return amount * rate, nil
}

// CBRRates returns official ruble exchange rates from the Bank of Russia feed.
func (r *Realtime) CBRRates(ctx context.Context) (map[string]float64, error) {
	var out struct {
		Valute map[string]struct {
			CharCode string  `json:"CharCode"`
			Value    float64 `json:"Value"`
		} `json:"Valute"`
	}
	if err := r.getJSON(ctx, r.cbrBase+"/daily_json.js", &out); err != nil {
		return nil, err
	}
	rates := make(map[string]float64, len(out.Valute))
	for _, v := range out.Valute {
		rates[v.CharCode] = v.Value
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("empty rates feed")
	}
	return rates, nil
}

func formatCBRAnswer(rates map[string]float64) string {
	parts := make([]string, 0, len(cbrQuoted))
	for _, code := range cbrQuoted {
		if value, ok := rates[code]; ok {
			parts = append(parts, fmt.Sprintf("%s %.2f ₽", code, value))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Курсы ЦБ РФ: " + strings.Join(parts, ", ")
}

func (r *Realtime) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: %s", u, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
