package store

import (
	"testing"
	"time"

	"windexai/pkg/domain"
)

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "x", CreatedAt: time.Now()}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	got, ok, err := s.GetUserByUsername("alice")
	if err != nil || !ok {
		t.Fatalf("get by username: ok=%v err=%v", ok, err)
	}
	if got.ID != "u1" {
		t.Fatalf("got id %q", got.ID)
	}
	if ok, _ := s.HasUsername("alice"); !ok {
		t.Fatalf("HasUsername should report existing user")
	}
	if ok, _ := s.HasEmail("bob@example.com"); ok {
		t.Fatalf("HasEmail reported unknown email")
	}
}

func TestMemoryStoreConversationCascade(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	conv := domain.Conversation{ID: "c1", UserID: "u1", Title: "hello", Type: domain.ConversationChat, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateConversation(conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for i, role := range []string{"user", "assistant"} {
		msg := domain.Message{ID: string(rune('a' + i)), ConversationID: "c1", Role: role, Content: "msg", Type: domain.MessageText, CreatedAt: now}
		if err := s.AppendMessage(msg); err != nil {
			t.Fatalf("append message: %v", err)
		}
	}
	if err := s.SaveGeneration(domain.Generation{ID: "g1", ConversationID: "c1", UserID: "u1", Mode: "lite", CreatedAt: now}); err != nil {
		t.Fatalf("save generation: %v", err)
	}

	if err := s.DeleteConversation("c1"); err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	if _, ok, _ := s.GetConversation("c1"); ok {
		t.Fatalf("conversation should be gone")
	}
	msgs, _ := s.ListMessages("c1", 0)
	if len(msgs) != 0 {
		t.Fatalf("messages should be deleted with conversation, got %d", len(msgs))
	}
	gens, _ := s.ListGenerationsByConversation("c1")
	if len(gens) != 0 {
		t.Fatalf("generations should be deleted with conversation, got %d", len(gens))
	}
}

func TestMemoryStoreConversationFilterAndOrder(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	for i, typ := range []domain.ConversationType{domain.ConversationChat, domain.ConversationEditor, domain.ConversationChat} {
		c := domain.Conversation{
			ID: string(rune('a' + i)), UserID: "u1", Title: "t", Type: typ,
			CreatedAt: base, UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateConversation(c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	chats, err := s.ListConversationsByUser("u1", domain.ConversationChat, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("want 2 chat conversations, got %d", len(chats))
	}
	if chats[0].ID != "c" {
		t.Fatalf("newest conversation should come first, got %q", chats[0].ID)
	}
	all, _ := s.ListConversationsByUser("u1", "", 10)
	if len(all) != 3 {
		t.Fatalf("want 3 conversations unfiltered, got %d", len(all))
	}
}

func TestMemoryStoreDeploymentSlugAndAnalytics(t *testing.T) {
	s := NewMemoryStore()
	d := domain.Deployment{ID: "d1", OwnerID: "u1", Title: "site", Slug: "ab12cd34", HTML: "<html></html>", IsActive: true, CreatedAt: time.Now()}
	if err := s.CreateDeployment(d); err != nil {
		t.Fatalf("create deployment: %v", err)
	}
	if ok, _ := s.HasDeploymentSlug("ab12cd34"); !ok {
		t.Fatalf("slug should be taken")
	}
	got, ok, _ := s.GetDeploymentBySlug("ab12cd34")
	if !ok || got.ID != "d1" {
		t.Fatalf("lookup by slug failed: ok=%v id=%q", ok, got.ID)
	}
	if err := s.SaveAnalytics(domain.SiteAnalytics{DeploymentID: "d1", PageViews: 5}); err != nil {
		t.Fatalf("save analytics: %v", err)
	}
	if err := s.DeleteDeployment("d1"); err != nil {
		t.Fatalf("delete deployment: %v", err)
	}
	if _, ok, _ := s.GetAnalytics("d1"); ok {
		t.Fatalf("analytics should be deleted with deployment")
	}
}

func TestMemoryStoreDocumentStatus(t *testing.T) {
	s := NewMemoryStore()
	doc := domain.Document{ID: "doc1", OwnerID: "u1", Filename: "a.pdf", OriginalFilename: "a.pdf", Status: domain.DocumentQueued, UploadedAt: time.Now()}
	if err := s.SaveDocument(doc); err != nil {
		t.Fatalf("save document: %v", err)
	}
	if err := s.SetDocumentStatus("doc1", domain.DocumentReady, "extracted text", ""); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, ok, _ := s.GetDocument("doc1")
	if !ok || got.Status != domain.DocumentReady || got.Content != "extracted text" {
		t.Fatalf("unexpected document after update: %+v", got)
	}
}
