package models

import (
	"time"
)

// DocumentIndex maps a user-assigned document name to the vector index
// holding its chunks. One record per document name, overwritten on re-upload.
type DocumentIndex struct {
	Name           string    `bson:"name" json:"name"`
	IndexName      string    `bson:"index_name" json:"index_name"`
	ChunkCount     int       `bson:"chunk_count" json:"chunk_count"`
	Dimensions     int       `bson:"dimensions" json:"dimensions"`
	EmbeddingModel string    `bson:"embedding_model" json:"embedding_model"`
	IndexedAt      time.Time `bson:"indexed_at" json:"indexed_at"`
}

// RetrievedChunk is one chunk returned from a similarity query,
// ordered by descending score. Never persisted.
type RetrievedChunk struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// UploadResponse is returned after a successful document upload.
type UploadResponse struct {
	Name       string `json:"name"`
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message"`
}

// QuestionRequest is the body of a question against an indexed document.
type QuestionRequest struct {
	Name     string `json:"name" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// AnswerResponse carries the synthesized answer back to the caller.
type AnswerResponse struct {
	Name       string `json:"name"`
	Answer     string `json:"answer"`
	ChunksUsed int    `json:"chunks_used"`
	Cached     bool   `json:"cached"`
}
