package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"windexai/pkg/ai"
	"windexai/pkg/domain"
	"windexai/pkg/storage"
	"windexai/pkg/store"
	"windexai/pkg/webinfo"
)

type fakeLLM struct {
	chatReply  string
	chatErr    error
	transcript string
	lastSystem string
}

func (f *fakeLLM) Chat(ctx context.Context, model string, messages []ai.Message, temperature float64) (string, error) {
	if len(messages) > 0 {
		f.lastSystem = messages[0].Content
	}
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if f.chatReply != "" {
		return f.chatReply, nil
	}
	return "ответ ассистента", nil
}

func (f *fakeLLM) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return f.transcript, nil
}

func (f *fakeLLM) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	return []byte("mp3"), nil
}

type fakeSearch struct {
	results []webinfo.Result
	calls   int
}

func (f *fakeSearch) SearchAndFetch(ctx context.Context, query string, limit int) ([]webinfo.Result, error) {
	f.calls++
	return f.results, nil
}

func newTestApp(t *testing.T, llm ai.LLM) *App {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := store.NewSessionStore("test-secret", time.Hour, store.NewTokenRevoker(client))

	a, err := New(Config{
		Store:         store.NewMemoryStore(),
		Sessions:      sessions,
		LLM:           llm,
		Objects:       storage.NewMemoryStore(),
		PublicBaseURL: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a
}

func registerTestUser(t *testing.T, a *App, username string) domain.User {
	t.Helper()
	user, _, err := a.Register(username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	registerTestUser(t, a, "alice")

	if _, _, err := a.Register("alice", "other@example.com", "pw"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v", err)
	}
	if _, _, err := a.Register("bob", "alice@example.com", "pw"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	registerTestUser(t, a, "alice")

	if _, _, err := a.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, _, err := a.Login("ghost", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")
	_, token, err := a.Login("alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	ctx := context.Background()
	if got, ok := a.UserFromToken(ctx, token); !ok || got.ID != user.ID {
		t.Fatalf("token should resolve before logout")
	}
	if err := a.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := a.UserFromToken(ctx, token); ok {
		t.Fatalf("token must not resolve after logout")
	}
}

func TestChatCreatesConversationAndPersistsExchange(t *testing.T) {
	llm := &fakeLLM{chatReply: "привет!"}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	res, err := a.Chat(context.Background(), user, "", "расскажи анекдот про программистов", "")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.Reply != "привет!" {
		t.Fatalf("reply %q", res.Reply)
	}
	if res.ConversationID == "" {
		t.Fatalf("conversation not created")
	}

	convs, err := a.ListConversations(user, domain.ConversationChat, 10)
	if err != nil || len(convs) != 1 {
		t.Fatalf("conversations: %v %d", err, len(convs))
	}
	if convs[0].Title != "расскажи анекдот про программистов" {
		t.Fatalf("title from first message not set: %q", convs[0].Title)
	}

	msgs, err := a.ConversationMessages(user, res.ConversationID)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("want user+assistant messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("roles wrong: %s %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestChatResolvesModel(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	res, err := a.Chat(context.Background(), user, "", "привет", "gpt-9000-ultra")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.ModelUsed != ai.DefaultModel {
		t.Fatalf("unknown model must fall back to default, got %q", res.ModelUsed)
	}

	res, err = a.Chat(context.Background(), user, res.ConversationID, "ещё", "gpt-4o")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if res.ModelUsed != "gpt-4o" {
		t.Fatalf("allowed model must pass through, got %q", res.ModelUsed)
	}
}

func TestChatTruncatesLongTitle(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	long := strings.Repeat("с", 80)
	if _, err := a.Chat(context.Background(), user, "", long, ""); err != nil {
		t.Fatalf("chat: %v", err)
	}
	convs, _ := a.ListConversations(user, "", 10)
	if len(convs) != 1 {
		t.Fatalf("conversations: %d", len(convs))
	}
	want := strings.Repeat("с", 50) + "..."
	if convs[0].Title != want {
		t.Fatalf("title %q, want %q", convs[0].Title, want)
	}
}

func TestChatApologyOnModelFailureIsPersisted(t *testing.T) {
	llm := &fakeLLM{chatErr: fmt.Errorf("upstream down")}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	res, err := a.Chat(context.Background(), user, "", "привет", "")
	if err != nil {
		t.Fatalf("chat must not fail on model errors: %v", err)
	}
	if res.Reply != apologyText {
		t.Fatalf("reply %q, want apology", res.Reply)
	}
	msgs, _ := a.ConversationMessages(user, res.ConversationID)
	if len(msgs) != 2 || msgs[1].Content != apologyText {
		t.Fatalf("apology must be persisted as assistant message: %+v", msgs)
	}
}

func TestChatSearchPreStepInjectsResults(t *testing.T) {
	llm := &fakeLLM{}
	a := newTestApp(t, llm)
	search := &fakeSearch{results: []webinfo.Result{{Title: "Новость дня", URL: "https://n.example"}}}
	a.search = search
	user := registerTestUser(t, a, "alice")

	if _, err := a.Chat(context.Background(), user, "", "найди последние новости", ""); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if search.calls != 1 {
		t.Fatalf("search pre-step not triggered")
	}
	if !strings.Contains(llm.lastSystem, "Новость дня") {
		t.Fatalf("search results not spliced into system prompt")
	}

	search.calls = 0
	if _, err := a.Chat(context.Background(), user, "", "привет!", ""); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if search.calls != 0 {
		t.Fatalf("small talk must not trigger search")
	}
}

func TestChatSuggestsEditorForSiteRequests(t *testing.T) {
	llm := &fakeLLM{}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	if _, err := a.Chat(context.Background(), user, "", "создай сайт для кофейни", ""); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(llm.lastSystem, "AI-редактор") {
		t.Fatalf("site request must steer to the editor, system prompt: %q", llm.lastSystem)
	}

	if _, err := a.Chat(context.Background(), user, "", "привет!", ""); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if strings.Contains(llm.lastSystem, "AI-редактор") {
		t.Fatalf("small talk must not get the editor hint")
	}
}

func TestChatRejectsForeignConversation(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	alice := registerTestUser(t, a, "alice")
	bob := registerTestUser(t, a, "bob")

	res, err := a.Chat(context.Background(), alice, "", "привет", "")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if _, err := a.Chat(context.Background(), bob, res.ConversationID, "взлом", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign conversation: got %v", err)
	}
	if err := a.DeleteConversation(bob, res.ConversationID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete: got %v", err)
	}
}

func TestGenerateSitePersistsRun(t *testing.T) {
	// An unparsable architect reply exercises the fallback plan path end to end.
	llm := &fakeLLM{chatReply: "<div>код</div>"}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	gen, err := a.GenerateSite(context.Background(), user, "", "сайт кофейни", "lite")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(gen.Plan.Steps) != 6 {
		t.Fatalf("fallback plan expected, got %d steps", len(gen.Plan.Steps))
	}
	if !strings.HasPrefix(gen.HTML, "<!DOCTYPE html>") {
		t.Fatalf("combined document missing")
	}

	gens, err := a.Generations(user, gen.ConversationID)
	if err != nil || len(gens) != 1 {
		t.Fatalf("generations: %v %d", err, len(gens))
	}
	convs, _ := a.ListConversations(user, domain.ConversationEditor, 10)
	if len(convs) != 1 {
		t.Fatalf("editor conversation not created")
	}
}

func TestDocumentUploadParseAndAsk(t *testing.T) {
	llm := &fakeLLM{chatReply: "в документе написано: привет"}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	body := "привет мир"
	doc, err := a.UploadDocument(context.Background(), user, "notes.txt", int64(len(body)), strings.NewReader(body))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Status != domain.DocumentReady {
		t.Fatalf("inline parse should finish, status %s", doc.Status)
	}
	if doc.Content != "привет мир" {
		t.Fatalf("content %q", doc.Content)
	}

	answer, err := a.AskDocument(context.Background(), user, doc.ID, "что написано?", "")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer == "" {
		t.Fatalf("empty answer")
	}
	if !strings.Contains(llm.lastSystem, "привет мир") {
		t.Fatalf("document content not injected into prompt")
	}

	url, err := a.DocumentDownloadURL(context.Background(), user, doc.ID)
	if err != nil || url == "" {
		t.Fatalf("download url: %v %q", err, url)
	}

	bob := registerTestUser(t, a, "bob")
	if _, err := a.AskDocument(context.Background(), bob, doc.ID, "?", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign document: got %v", err)
	}
	if _, err := a.DocumentDownloadURL(context.Background(), bob, doc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign download: got %v", err)
	}
}

func TestDocumentUploadRejectsUnsupportedType(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")
	if _, err := a.UploadDocument(context.Background(), user, "virus.exe", 10, strings.NewReader("x")); err == nil {
		t.Fatalf("exe upload must be rejected")
	}
}

func TestDocumentContextCapped(t *testing.T) {
	llm := &fakeLLM{}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	big := strings.Repeat("а", 6000)
	doc, err := a.UploadDocument(context.Background(), user, "big.txt", int64(len(big)), strings.NewReader(big))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := a.AskDocument(context.Background(), user, doc.ID, "?", ""); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(llm.lastSystem, strings.Repeat("а", maxDocContextRunes)) {
		t.Fatalf("document context missing from prompt")
	}
	if strings.Contains(llm.lastSystem, strings.Repeat("а", maxDocContextRunes+1)) {
		t.Fatalf("document context not capped")
	}
}

func TestVoiceMessageRunsChatFlow(t *testing.T) {
	llm := &fakeLLM{transcript: "привет ассистент", chatReply: "привет!"}
	a := newTestApp(t, llm)
	user := registerTestUser(t, a, "alice")

	res, err := a.VoiceMessage(context.Background(), user, "", "voice.webm", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("voice: %v", err)
	}
	if res.Transcript != "привет ассистент" || res.Reply != "привет!" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.AudioURL == "" {
		t.Fatalf("spoken reply URL missing")
	}
	msgs, _ := a.ConversationMessages(user, res.ConversationID)
	if len(msgs) != 2 || msgs[0].Content != "привет ассистент" {
		t.Fatalf("transcript not stored as user message: %+v", msgs)
	}
}

func TestVoiceMessageRejectsNonAudio(t *testing.T) {
	a := newTestApp(t, &fakeLLM{transcript: "x"})
	user := registerTestUser(t, a, "alice")
	if _, err := a.VoiceMessage(context.Background(), user, "", "notes.txt", strings.NewReader("text")); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("txt voice upload: got %v", err)
	}
}

func TestDeployAndServeInlinesAssets(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	dep, err := a.CreateDeployment(user, "Сайт", "", "<html><head></head><body><h1>Привет</h1></body></html>", "h1{color:red}", "console.log(1)")
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if len(dep.Slug) != 8 {
		t.Fatalf("slug %q", dep.Slug)
	}
	if got := a.PublicURL(dep); got != "http://localhost:8080/sites/"+dep.Slug {
		t.Fatalf("public url %q", got)
	}

	page, err := a.ServeSite(dep.Slug)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.Contains(page, "h1{color:red}\n</style>\n</head>") {
		t.Fatalf("css not inlined before </head>:\n%s", page)
	}
	if !strings.Contains(page, "console.log(1)\n</script>\n</body>") {
		t.Fatalf("js not inlined before </body>:\n%s", page)
	}
}

func TestServeSiteWithoutWrapperTags(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	dep, err := a.CreateDeployment(user, "Сайт", "", "<h1>Привет</h1>", ".x{}", "run()")
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	page, err := a.ServeSite(dep.Slug)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.HasPrefix(page, "<style>") {
		t.Fatalf("css should be prepended when no </head>:\n%s", page)
	}
	if !strings.HasSuffix(strings.TrimSpace(page), "</script>") {
		t.Fatalf("js should be appended when no </body>:\n%s", page)
	}
}

func TestServeSiteInactiveOrMissing(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	dep, err := a.CreateDeployment(user, "Сайт", "", "<h1>x</h1>", "", "")
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	dep.IsActive = false
	if _, err := a.UpdateDeployment(user, dep); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := a.ServeSite(dep.Slug); !errors.Is(err, ErrNotFound) {
		t.Fatalf("inactive site: got %v", err)
	}
	if _, err := a.ServeSite("nope1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing site: got %v", err)
	}
}

func TestServeSiteCountsViews(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	dep, err := a.CreateDeployment(user, "Сайт", "", "<h1>x</h1>", "", "")
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	before, err := a.DeploymentAnalytics(user, dep.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if _, err := a.ServeSite(dep.Slug); err != nil {
		t.Fatalf("serve: %v", err)
	}
	after, err := a.DeploymentAnalytics(user, dep.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if after.PageViews != before.PageViews+1 {
		t.Fatalf("page views %d -> %d", before.PageViews, after.PageViews)
	}
	if len(after.Daily) != 7 {
		t.Fatalf("daily breakdown length %d", len(after.Daily))
	}
}

func TestDashboardAggregates(t *testing.T) {
	a := newTestApp(t, &fakeLLM{})
	user := registerTestUser(t, a, "alice")

	for i := 0; i < 2; i++ {
		if _, err := a.CreateDeployment(user, fmt.Sprintf("Сайт %d", i), "", "<h1>x</h1>", "", ""); err != nil {
			t.Fatalf("deploy: %v", err)
		}
	}
	summary, err := a.Dashboard(user)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if summary.Deployments != 2 || summary.ActiveSites != 2 {
		t.Fatalf("summary %+v", summary)
	}
	if len(summary.PerSite) != 2 || summary.TotalViews <= 0 {
		t.Fatalf("per-site analytics missing: %+v", summary)
	}
}
