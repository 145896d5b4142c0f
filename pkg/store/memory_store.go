package store

import (
	"sort"
	"sync"
	"time"

	"windexai/pkg/domain"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message
	documents     map[string]domain.Document
	deployments   map[string]domain.Deployment
	analytics     map[string]domain.SiteAnalytics
	generations   map[string][]domain.Generation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.Message),
		documents:     make(map[string]domain.Document),
		deployments:   make(map[string]domain.Deployment),
		analytics:     make(map[string]domain.SiteAnalytics),
		generations:   make(map[string][]domain.Generation),
	}
}

func (s *MemoryStore) CreateUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) HasUsername(username string) (bool, error) {
	_, ok, _ := s.GetUserByUsername(username)
	return ok, nil
}

func (s *MemoryStore) HasEmail(email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UpdateUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		s.users[u.ID] = u
	}
	return nil
}

func (s *MemoryStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for convID, c := range s.conversations {
		if c.UserID != id {
			continue
		}
		delete(s.conversations, convID)
		delete(s.messages, convID)
		delete(s.generations, convID)
	}
	for docID, d := range s.documents {
		if d.OwnerID == id {
			delete(s.documents, docID)
		}
	}
	for depID, d := range s.deployments {
		if d.OwnerID == id {
			delete(s.deployments, depID)
			delete(s.analytics, depID)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) CountConversationsByUser(userID string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.conversations {
		if c.UserID == userID && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountMessagesByUser(userID string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for convID, c := range s.conversations {
		if c.UserID != userID {
			continue
		}
		for _, msg := range s.messages[convID] {
			if !msg.CreatedAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) CountMessagesInConversation(conversationID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.messages[conversationID])), nil
}

func (s *MemoryStore) CountDocumentsByOwner(ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountDeploymentsByOwner(ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, d := range s.deployments {
		if d.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) LastMessageTimeByUser(userID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last time.Time
	found := false
	for convID, c := range s.conversations {
		if c.UserID != userID {
			continue
		}
		for _, msg := range s.messages[convID] {
			if msg.CreatedAt.After(last) {
				last = msg.CreatedAt
				found = true
			}
		}
	}
	return last, found, nil
}

func (s *MemoryStore) MessageCountsByDay(userID string) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for convID, c := range s.conversations {
		if c.UserID != userID {
			continue
		}
		for _, msg := range s.messages[convID] {
			counts[msg.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) CreateConversation(c domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return nil
}

func (s *MemoryStore) GetConversation(id string) (domain.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	return c, ok, nil
}

func (s *MemoryStore) ListConversationsByUser(userID string, convType domain.ConversationType, limit int) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Conversation
	for _, c := range s.conversations {
		if c.UserID != userID {
			continue
		}
		if convType != "" && c.Type != convType {
			continue
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *MemoryStore) UpdateConversationTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		c.Title = title
		c.UpdatedAt = time.Now().UTC()
		s.conversations[id] = c
	}
	return nil
}

func (s *MemoryStore) TouchConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		c.UpdatedAt = time.Now().UTC()
		s.conversations[id] = c
	}
	return nil
}

func (s *MemoryStore) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
	delete(s.messages, id)
	delete(s.generations, id)
	return nil
}

func (s *MemoryStore) AppendMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

func (s *MemoryStore) ListMessages(conversationID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := append([]domain.Message(nil), s.messages[conversationID]...)
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *MemoryStore) SaveDocument(d domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[d.ID] = d
	return nil
}

func (s *MemoryStore) SetDocumentStatus(id string, status domain.DocumentStatus, content, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.documents[id]; ok {
		d.Status = status
		if content != "" {
			d.Content = content
		}
		d.ErrorMessage = errMsg
		s.documents[id] = d
	}
	return nil
}

func (s *MemoryStore) GetDocument(id string) (domain.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	return d, ok, nil
}

func (s *MemoryStore) ListDocumentsByOwner(ownerID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Document
	for _, d := range s.documents {
		if d.OwnerID == ownerID {
			res = append(res, d)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UploadedAt.After(res[j].UploadedAt) })
	return res, nil
}

func (s *MemoryStore) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

func (s *MemoryStore) CreateDeployment(d domain.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[d.ID] = d
	return nil
}

func (s *MemoryStore) GetDeployment(id string) (domain.Deployment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deployments[id]
	return d, ok, nil
}

func (s *MemoryStore) GetDeploymentBySlug(slug string) (domain.Deployment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.deployments {
		if d.Slug == slug {
			return d, true, nil
		}
	}
	return domain.Deployment{}, false, nil
}

func (s *MemoryStore) HasDeploymentSlug(slug string) (bool, error) {
	_, ok, _ := s.GetDeploymentBySlug(slug)
	return ok, nil
}

func (s *MemoryStore) ListDeploymentsByOwner(ownerID string) ([]domain.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Deployment
	for _, d := range s.deployments {
		if d.OwnerID == ownerID {
			res = append(res, d)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) UpdateDeployment(d domain.Deployment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.deployments[d.ID]; ok {
		existing.Title = d.Title
		existing.Description = d.Description
		existing.HTML = d.HTML
		existing.CSS = d.CSS
		existing.JS = d.JS
		existing.IsActive = d.IsActive
		existing.UpdatedAt = time.Now().UTC()
		s.deployments[d.ID] = existing
	}
	return nil
}

func (s *MemoryStore) DeleteDeployment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deployments, id)
	delete(s.analytics, id)
	return nil
}

func (s *MemoryStore) GetAnalytics(deploymentID string) (domain.SiteAnalytics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analytics[deploymentID]
	return a, ok, nil
}

func (s *MemoryStore) SaveAnalytics(a domain.SiteAnalytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics[a.DeploymentID] = a
	return nil
}

func (s *MemoryStore) SaveGeneration(g domain.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[g.ConversationID] = append(s.generations[g.ConversationID], g)
	return nil
}

func (s *MemoryStore) ListGenerationsByConversation(conversationID string) ([]domain.Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Generation(nil), s.generations[conversationID]...), nil
}
