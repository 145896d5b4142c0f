package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"windexai/internal/util"
	"windexai/pkg/ai"
	"windexai/pkg/docparse"
	"windexai/pkg/domain"
)

const (
	maxDocumentBytes    = 10 << 20
	maxDocContextRunes  = 4000
	documentKeyTemplate = "documents/%s/%s%s"
)

var allowedDocExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// UploadDocument stores the original in object storage, records the row and
// schedules text extraction. Without a queue the extraction runs inline.
func (a *App) UploadDocument(ctx context.Context, user domain.User, filename string, size int64, data io.Reader) (domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedDocExtensions[ext] {
		return domain.Document{}, fmt.Errorf("%w %q", ErrUnsupportedFile, ext)
	}
	if size <= 0 || size > maxDocumentBytes {
		return domain.Document{}, ErrFileTooLarge
	}
	if a.objects == nil {
		return domain.Document{}, fmt.Errorf("object storage not configured")
	}

	key := fmt.Sprintf(documentKeyTemplate, user.ID, uuid.NewString(), ext)
	if err := a.objects.Put(ctx, key, io.LimitReader(data, maxDocumentBytes), size, contentTypeFor(ext)); err != nil {
		return domain.Document{}, fmt.Errorf("store original: %w", err)
	}

	doc := domain.Document{
		ID:               util.NewID(),
		OwnerID:          user.ID,
		Filename:         filepath.Base(key),
		OriginalFilename: filename,
		StorageKey:       key,
		SizeBytes:        size,
		FileType:         strings.TrimPrefix(ext, "."),
		Status:           domain.DocumentQueued,
		UploadedAt:       nowUTC(),
	}
	if err := a.store.SaveDocument(doc); err != nil {
		return domain.Document{}, fmt.Errorf("save document: %w", err)
	}

	if a.parseQueue != nil {
		if _, err := a.parseQueue.Enqueue(ctx, doc.ID); err != nil {
			a.log.Warn("enqueue parse job failed, parsing inline", "document_id", doc.ID, "error", err)
			_ = a.ProcessDocument(ctx, doc.ID)
		}
	} else {
		_ = a.ProcessDocument(ctx, doc.ID)
	}

	got, ok, err := a.store.GetDocument(doc.ID)
	if err == nil && ok {
		return got, nil
	}
	return doc, nil
}

// ProcessDocument extracts text for a stored document. Returned errors make
// the queue retry the job.
func (a *App) ProcessDocument(ctx context.Context, documentID string) error {
	doc, ok, err := a.store.GetDocument(documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	if err := a.store.SetDocumentStatus(doc.ID, domain.DocumentProcessing, "", ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	reader, err := a.objects.Get(ctx, doc.StorageKey)
	if err != nil {
		_ = a.store.SetDocumentStatus(doc.ID, domain.DocumentFailed, "", err.Error())
		return fmt.Errorf("fetch original: %w", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(io.LimitReader(reader, maxDocumentBytes))
	if err != nil {
		_ = a.store.SetDocumentStatus(doc.ID, domain.DocumentFailed, "", err.Error())
		return fmt.Errorf("read original: %w", err)
	}

	content, err := docparse.Extract(doc.OriginalFilename, data)
	if err != nil {
		_ = a.store.SetDocumentStatus(doc.ID, domain.DocumentFailed, "", err.Error())
		return fmt.Errorf("extract text: %w", err)
	}
	if err := a.store.SetDocumentStatus(doc.ID, domain.DocumentReady, content, ""); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	a.log.Info("document parsed", "document_id", doc.ID, "chars", len(content))
	return nil
}

// AskDocument answers a question about an extracted document. The document
// text injected into the prompt is capped to keep requests bounded.
func (a *App) AskDocument(ctx context.Context, user domain.User, documentID, question, model string) (string, error) {
	doc, err := a.ownedDocument(user, documentID)
	if err != nil {
		return "", err
	}
	if doc.Status != domain.DocumentReady {
		return "", ErrDocumentNotReady
	}
	docContext := doc.Content
	if runes := []rune(docContext); len(runes) > maxDocContextRunes {
		docContext = string(runes[:maxDocContextRunes])
	}
	if model == "" {
		model = a.defaultModel
	}
	reply, err := a.llm.Chat(ctx, model, []ai.Message{
		{Role: "system", Content: "Ты помощник, отвечающий на вопросы по документу пользователя. Отвечай только на основе содержимого документа.\n\nДокумент \"" + doc.OriginalFilename + "\":\n" + docContext},
		{Role: "user", Content: question},
	}, 0.7)
	if err != nil {
		a.log.Warn("document question failed", "document_id", doc.ID, "error", err)
		return apologyText, nil
	}
	return reply, nil
}

// DocumentDownloadURL returns a presigned link to the stored original.
func (a *App) DocumentDownloadURL(ctx context.Context, user domain.User, documentID string) (string, error) {
	doc, err := a.ownedDocument(user, documentID)
	if err != nil {
		return "", err
	}
	if a.objects == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	url, err := a.objects.PresignGet(ctx, doc.StorageKey, time.Hour)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

// ListDocuments returns the user's documents.
func (a *App) ListDocuments(user domain.User) ([]domain.Document, error) {
	return a.store.ListDocumentsByOwner(user.ID)
}

// GetDocument returns one document owned by the user.
func (a *App) GetDocument(user domain.User, documentID string) (domain.Document, error) {
	return a.ownedDocument(user, documentID)
}

// DeleteDocument removes the row and the stored original.
func (a *App) DeleteDocument(ctx context.Context, user domain.User, documentID string) error {
	doc, err := a.ownedDocument(user, documentID)
	if err != nil {
		return err
	}
	if a.objects != nil && doc.StorageKey != "" {
		if err := a.objects.Delete(ctx, doc.StorageKey); err != nil {
			a.log.Warn("delete original failed", "document_id", doc.ID, "error", err)
		}
	}
	return a.store.DeleteDocument(doc.ID)
}

func (a *App) ownedDocument(user domain.User, documentID string) (domain.Document, error) {
	doc, ok, err := a.store.GetDocument(documentID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("load document: %w", err)
	}
	if !ok {
		return domain.Document{}, ErrNotFound
	}
	if doc.OwnerID != user.ID {
		return domain.Document{}, ErrForbidden
	}
	return doc, nil
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
