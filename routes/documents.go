package routes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"document-chat-service/internal/ai"
	"document-chat-service/internal/config"
	"document-chat-service/internal/logger"
	"document-chat-service/internal/vectorstore"
	"document-chat-service/models"
	"document-chat-service/services"
	"document-chat-service/utils"

	"github.com/gin-gonic/gin"
)

// SetupDocumentRoutes wires the upload path: PDF in, extracted, chunked,
// embedded and indexed under the supplied document name.
func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, extractor *services.PDFExtractor, indexer *services.Indexer) {
	docs := router.Group("/documents")

	docs.POST("", func(c *gin.Context) {
		name := strings.TrimSpace(c.PostForm("name"))
		if name == "" {
			utils.RespondWithBadRequest(c, "Document name is required", nil)
			return
		}

		file, header, err := c.Request.FormFile("pdf")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file", "No PDF file provided", nil)
			return
		}
		defer file.Close()

		ct := header.Header.Get("Content-Type")
		if !strings.Contains(ct, "pdf") && !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type", "Only PDF files are allowed", nil)
			return
		}

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File size exceeds maximum limit", gin.H{"max_size": cfg.MaxFileSize})
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file", "Cannot read uploaded file", nil)
			return
		}
		if int64(len(content)) > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File size exceeds maximum limit", gin.H{"max_size": cfg.MaxFileSize})
			return
		}
		if len(content) < 4 || string(content[:4]) != "%PDF" {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_pdf",
				"File does not appear to be a valid PDF", nil)
			return
		}

		text, err := extractor.ExtractText(c.Request.Context(), content)
		if err != nil {
			logger.Error("text extraction failed", "document", name, "error", err)
			utils.RespondWithError(c, http.StatusBadRequest, "extraction_failed",
				"Failed to extract text from PDF", gin.H{"error": err.Error()})
			return
		}

		chunks := services.SplitIntoChunks(text, cfg.ChunkSize, cfg.ChunkOverlap)

		if err := indexer.IndexDocument(c.Request.Context(), name, chunks); err != nil {
			logger.Error("document indexing failed", "document", name, "error", err)
			respondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			Name:       name,
			ChunkCount: len(chunks),
			Message:    "Document indexed successfully",
		})
	})
}

// respondWithPipelineError maps pipeline failures onto the error payload
// contract, keeping the original error description user-visible.
func respondWithPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrEmbedding):
		utils.RespondWithBadGateway(c, "embedding_error", "Embedding provider call failed", gin.H{"error": err.Error()})
	case errors.Is(err, vectorstore.ErrVectorStore):
		utils.RespondWithBadGateway(c, "vector_store_error", "Vector store call failed", gin.H{"error": err.Error()})
	case errors.Is(err, ai.ErrSynthesis):
		utils.RespondWithBadGateway(c, "synthesis_error", "Language model call failed", gin.H{"error": err.Error()})
	default:
		utils.RespondWithInternalError(c, "Request failed", gin.H{"error": err.Error()})
	}
}
