package httpapi

import (
	"context"
	"net/http"

	"speakai-platform/internal/auth"
	"speakai-platform/internal/batch"

	"github.com/gin-gonic/gin"
)

// SubmitBatch takes a CSV or Excel "file" part plus agent_name, call_name,
// column_name and an optional scheduled_time.
func (h Handlers) SubmitBatch(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	file, ok := formUpload(c, "file")
	if !ok {
		return
	}
	req := batch.SubmitRequest{
		AgentName:     c.PostForm("agent_name"),
		CallName:      c.PostForm("call_name"),
		Column:        c.PostForm("column_name"),
		ScheduledTime: c.PostForm("scheduled_time"),
	}
	if file != nil {
		req.Filename, req.File = file.Filename, file.Data
	}

	res, err := h.Batch.Submit(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       "Batch call submitted",
		"batch_job_id":  res.Job.BatchJobID,
		"job":           res.Job,
		"total_numbers": res.Recipients,
		"dropped":       res.Dropped,
	})
}

func (h Handlers) BatchStatus(c *gin.Context) {
	h.batchAction(c, h.Batch.Status)
}

func (h Handlers) CancelBatch(c *gin.Context) {
	h.batchAction(c, h.Batch.Cancel)
}

func (h Handlers) RetryBatch(c *gin.Context) {
	h.batchAction(c, h.Batch.Retry)
}

func (h Handlers) batchAction(c *gin.Context, op func(context.Context, auth.Identity, string) (batch.StatusResult, error)) {
	id, ok := caller(c)
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), id, c.Param("call_name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) ListBatches(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	jobs, err := h.Batch.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if jobs == nil {
		jobs = []batch.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"batch_calls": jobs, "total": len(jobs)})
}
