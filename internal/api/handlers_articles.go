package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/articleflow/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleListArticles lists published articles for a user.
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	store := s.orchestrator.Store()
	if store == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
		return
	}

	children, err := store.ListChildren(r.Context(), pipeline.UserPrefix(userID), 200)
	if err != nil {
		jsonError(w, "failed to list articles: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Only render nodes; the hash index lives under the same prefix.
	articles := []map[string]any{}
	for _, child := range children {
		if strings.HasSuffix(child.Key, "/render") || strings.HasSuffix(child.Key, ".render") {
			articles = append(articles, map[string]any{
				"key":   child.Key,
				"value": summarize(child.Value),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"articles": articles})
}

// summarize drops the bulky markup fields from a stored render.
func summarize(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case "page", "slots", "overflow":
			continue
		}
		out[k] = v
	}
	return out
}

// handleDeleteArticle deletes a published article and its hash index entry.
func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	store := s.orchestrator.Store()
	if store == nil {
		jsonError(w, "publishing is disabled", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	node, err := store.GetNode(ctx, pipeline.RenderKey(userID, docID))
	if err != nil {
		jsonError(w, "failed to read article: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if node == nil {
		jsonError(w, "article not found", http.StatusNotFound)
		return
	}

	hashDeleted := deleteHashIndex(ctx, store, userID, docID, node.Value)

	docPrefix := fmt.Sprintf("%s/%s", pipeline.UserPrefix(userID), docID)
	if err := store.DeleteNode(ctx, docPrefix, true); err != nil {
		jsonError(w, "failed to delete article: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":             docID,
		"article_deleted":    true,
		"hash_index_deleted": hashDeleted,
	})
}

func deleteHashIndex(ctx context.Context, store pipeline.Store, userID, docID string, value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	hash, _ := m["content_hash"].(string)
	if hash == "" {
		return false
	}
	return store.DeleteNode(ctx, pipeline.HashKey(userID, hash, docID), false) == nil
}
