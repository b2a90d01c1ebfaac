package convai

import (
	"context"
	"errors"
	"io"
	"net/http"
)

type KnowledgeBaseDocument struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RAGIndexRequest configures indexing of a knowledge-base document.
type RAGIndexRequest struct {
	Text         bool   `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Model        string `json:"model"`
}

// DefaultRAGIndex is the indexing configuration used for uploaded documents.
var DefaultRAGIndex = RAGIndexRequest{
	Text:         true,
	ChunkSize:    256,
	ChunkOverlap: 0,
	Model:        "e5_mistral_7b_instruct",
}

type RAGIndexStatus struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress_percentage"`
}

// CreateKnowledgeBaseDocument registers a file as a knowledge-base source.
func (c *Client) CreateKnowledgeBaseDocument(ctx context.Context, filename, contentType string, r io.Reader) (KnowledgeBaseDocument, error) {
	var out KnowledgeBaseDocument
	req := c.r().
		SetMultipartField("file", filename, contentType, r).
		SetResult(&out)
	if _, err := c.do(ctx, "create knowledge base document", http.MethodPost, "/convai/knowledge-base", req); err != nil {
		return KnowledgeBaseDocument{}, err
	}
	if out.ID == "" {
		return KnowledgeBaseDocument{}, errors.New("convai: knowledge base response missing id")
	}
	return out, nil
}

func (c *Client) TriggerRAGIndex(ctx context.Context, docID string, in RAGIndexRequest) (RAGIndexStatus, error) {
	var out RAGIndexStatus
	req := c.r().
		SetPathParam("id", docID).
		SetBody(in).
		SetResult(&out)
	if _, err := c.do(ctx, "rag index", http.MethodPost, "/convai/knowledge-base/{id}/rag-index", req); err != nil {
		return RAGIndexStatus{}, err
	}
	return out, nil
}

func (c *Client) DeleteKnowledgeBaseDocument(ctx context.Context, docID string) error {
	req := c.r().SetPathParam("id", docID)
	_, err := c.do(ctx, "delete knowledge base document", http.MethodDelete, "/convai/knowledge-base/{id}", req)
	return err
}
