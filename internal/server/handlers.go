package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/happyhackingspace/pcfg"
	"github.com/happyhackingspace/pcfg/cyk"
	"github.com/happyhackingspace/pcfg/internal/textutil"
)

// ParseRequest is the body of POST /parse.
type ParseRequest struct {
	Sentence string `json:"sentence" binding:"required"`
}

// ParseResponse is the answer to POST /parse.
type ParseResponse struct {
	Tree        string  `json:"tree"`
	Covered     bool    `json:"covered"`
	Probability float64 `json:"probability"`
	Covering    string  `json:"covering,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// BatchRequest is the body of POST /parse/batch.
type BatchRequest struct {
	Sentences []string `json:"sentences" binding:"required"`
}

// BatchResponse is the answer to POST /parse/batch.
type BatchResponse struct {
	Results []pcfg.Result `json:"results"`
}

func (s *Server) parse(c *gin.Context) {
	var request ParseRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	r, err := s.parser.Parse(request.Sentence)
	switch {
	case errors.Is(err, cyk.ErrEmptySentence), errors.Is(err, pcfg.ErrTooLong):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	case err != nil:
		slog.Error("Parse failed", "sentence", textutil.NormalizeWhitespaces(request.Sentence), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to parse sentence",
		})
		return
	}

	resp := ParseResponse{
		Tree:        r.Tree,
		Covered:     r.Covered,
		Probability: r.Probability,
		Covering:    r.Covering,
	}
	if !r.Covered {
		resp.Message = cyk.NotInGrammarMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) parseBatch(c *gin.Context) {
	var request BatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}
	if s.config.MaxBatch > 0 && len(request.Sentences) > s.config.MaxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "Too many sentences",
		})
		return
	}

	results, err := s.parser.ParseBatch(c.Request.Context(), request.Sentences)
	if err != nil {
		slog.Warn("Batch cancelled", "sentences", len(request.Sentences), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

func (s *Server) check(c *gin.Context) {
	c.JSON(http.StatusOK, s.parser.Check())
}

func (s *Server) ambiguous(c *gin.Context) {
	words := c.QueryArray("word")
	limit := 0
	if len(words) == 0 {
		limit = pcfg.DefaultAmbiguousLimit
	}
	c.JSON(http.StatusOK, gin.H{
		"ambiguous": s.parser.Ambiguous(words, limit),
	})
}

func (s *Server) mostLikely(c *gin.Context) {
	symbols := c.QueryArray("symbol")
	if len(symbols) == 1 {
		symbols = strings.Fields(symbols[0])
	}
	if len(symbols) == 0 {
		symbols = pcfg.DefaultMostLikely
	}
	c.JSON(http.StatusOK, gin.H{
		"productions": s.parser.MostLikely(symbols),
	})
}
