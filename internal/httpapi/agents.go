package httpapi

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"speakai-platform/internal/agents"
	"speakai-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// CreateAgent accepts multipart form fields plus optional "file" (knowledge document)
// and "voice_file" (voice sample) parts.
func (h Handlers) CreateAgent(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	doc, ok := formUpload(c, "file")
	if !ok {
		return
	}
	voice, ok := formUpload(c, "voice_file")
	if !ok {
		return
	}

	res, err := h.Agents.Create(c.Request.Context(), id, agents.CreateRequest{
		AgentName:     c.PostForm("agent_name"),
		FirstMessage:  c.PostForm("first_message"),
		Prompt:        c.PostForm("prompt"),
		LLM:           c.PostForm("llm"),
		OwnerEmail:    c.PostForm("email"),
		BusinessName:  formOptional(c, "business_name"),
		AgentType:     formOptional(c, "agent_type"),
		SpeakingStyle: formOptional(c, "speaking_style"),
		Document:      doc,
		Voice:         voice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Agent created successfully",
		"agent":    res.Agent,
		"report":   res.Report,
		"warnings": res.Report.Warnings(),
	})
}

// UpdateAgent overwrites only the fields present in the form.
func (h Handlers) UpdateAgent(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	doc, ok := formUpload(c, "file")
	if !ok {
		return
	}
	voice, ok := formUpload(c, "voice_file")
	if !ok {
		return
	}

	res, err := h.Agents.Update(c.Request.Context(), id, agents.UpdateRequest{
		AgentName:     c.PostForm("agent_name"),
		OwnerEmail:    c.PostForm("email"),
		FirstMessage:  formOptional(c, "first_message"),
		Prompt:        formOptional(c, "prompt"),
		LLM:           formOptional(c, "llm"),
		BusinessName:  formOptional(c, "business_name"),
		AgentType:     formOptional(c, "agent_type"),
		SpeakingStyle: formOptional(c, "speaking_style"),
		Document:      doc,
		Voice:         voice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Agent updated successfully",
		"agent":   res.Agent,
		"report":  res.Report,
	})
}

func (h Handlers) DeleteAgent(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	rowID, ok := idParam(c, "id")
	if !ok {
		return
	}
	report, err := h.Agents.Delete(c.Request.Context(), id, rowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Agent deleted",
		"cleanup": report,
	})
}

func (h Handlers) PauseNumber(c *gin.Context) {
	h.toggleNumber(c, h.Agents.Pause, "Twilio number paused")
}

func (h Handlers) ResumeNumber(c *gin.Context) {
	h.toggleNumber(c, h.Agents.Resume, "Twilio number resumed")
}

func (h Handlers) toggleNumber(c *gin.Context, op func(context.Context, auth.Identity, int64) (agents.LinkResult, error), message string) {
	id, ok := caller(c)
	if !ok {
		return
	}
	rowID, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), id, rowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message, "result": res})
}

func (h Handlers) ListAgents(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.Agents.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []agents.Agent{}
	}
	c.JSON(http.StatusOK, gin.H{"agents": list, "total": len(list)})
}

func (h Handlers) GetAgent(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	rowID, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.Agents.Get(c.Request.Context(), id, rowID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// formUpload reads an optional file part into memory. A missing part yields nil.
func formUpload(c *gin.Context, field string) (*agents.Upload, bool) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		badRequest(c, "invalid multipart form")
		return nil, false
	}
	if fh.Size > agents.MaxUploadBytes {
		badRequest(c, field+" exceeds the upload size limit")
		return nil, false
	}
	data, err := readPart(fh)
	if err != nil {
		badRequest(c, "could not read "+field)
		return nil, false
	}
	return &agents.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, agents.MaxUploadBytes+1))
}

// formOptional returns nil when the field is absent or blank.
func formOptional(c *gin.Context, field string) *string {
	v, ok := c.GetPostForm(field)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
