package routes

import (
	"errors"
	"net/http"

	"document-chat-service/internal/config"
	"document-chat-service/internal/logger"
	"document-chat-service/internal/telemetry"
	"document-chat-service/models"
	"document-chat-service/services"
	"document-chat-service/utils"

	"github.com/gin-gonic/gin"
)

// SetupQuestionRoutes wires the query path: validate locally, probe the
// answer cache, retrieve the most similar chunks and synthesize an answer.
func SetupQuestionRoutes(router *gin.Engine, cfg *config.Config,
	validator *services.QuestionValidator, cache *services.AnswerCache,
	retriever *services.Retriever, synthesizer *services.Synthesizer,
	metrics *telemetry.Metrics) {

	router.POST("/questions", func(c *gin.Context) {
		var req models.QuestionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		// Local validation runs before any network call so invalid
		// questions never spend embedding or generation quota.
		valid, reason := validator.Validate(req.Question)
		if !valid {
			if metrics != nil {
				metrics.RecordQuestion(req.Name, true)
			}
			utils.RespondWithError(c, http.StatusBadRequest, "validation_rejected", reason, nil)
			return
		}

		ctx := c.Request.Context()

		if answer, ok := cache.Get(ctx, req.Name, req.Question); ok {
			c.JSON(http.StatusOK, models.AnswerResponse{
				Name:   req.Name,
				Answer: answer,
				Cached: true,
			})
			return
		}

		chunks, err := retriever.Retrieve(ctx, req.Name, req.Question)
		if err != nil {
			if errors.Is(err, services.ErrDocumentNotFound) {
				utils.RespondWithNotFound(c, "Document index not found")
				return
			}
			logger.Error("retrieval failed", "document", req.Name, "error", err)
			respondWithPipelineError(c, err)
			return
		}

		answer, err := synthesizer.Synthesize(ctx, chunks, req.Question)
		if err != nil {
			logger.Error("answer synthesis failed", "document", req.Name, "error", err)
			respondWithPipelineError(c, err)
			return
		}

		cache.Set(ctx, req.Name, req.Question, answer)
		if metrics != nil {
			metrics.RecordQuestion(req.Name, false)
		}

		c.JSON(http.StatusOK, models.AnswerResponse{
			Name:       req.Name,
			Answer:     answer,
			ChunksUsed: len(chunks),
		})
	})
}
