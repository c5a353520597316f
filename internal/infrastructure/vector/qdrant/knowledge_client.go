package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkraev/toolmatch/internal/core/domain"
	"github.com/mkraev/toolmatch/internal/infrastructure/resilience"
)

// KnowledgeClient indexes knowledge-entry chunks into a dedicated
// collection and resolves queries to the tools those chunks describe.
type KnowledgeClient struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func NewKnowledgeClient(baseURL, collection string) *KnowledgeClient {
	return NewKnowledgeClientWithOptions(baseURL, collection, Options{})
}

func NewKnowledgeClientWithOptions(baseURL, collection string, options Options) *KnowledgeClient {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &KnowledgeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: requestTimeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *KnowledgeClient) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor != nil {
		return c.executor.Execute(ctx, operation, call, classifyQdrantError)
	}
	return call(ctx)
}

func (c *KnowledgeClient) IndexEntry(
	ctx context.Context,
	entry domain.KnowledgeEntry,
	chunks []string,
	vectors [][]float32,
) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}
	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	points := make([]map[string]any, 0, len(chunks))
	for i := range chunks {
		points = append(points, map[string]any{
			"id":     uuid.NewString(),
			"vector": vectors[i],
			"payload": map[string]any{
				"entry_id":      entry.ID,
				"tool_id":       entry.ToolID,
				"title":         entry.Title,
				"chunk_index":   i,
				"text":          chunks[i],
				"quality_score": entry.QualityScore,
			},
		})
	}

	body, err := json.Marshal(map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("marshal knowledge upsert body: %w", err)
	}

	return c.execute(ctx, "qdrant.knowledge.upsert", func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create knowledge upsert request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("knowledge upsert request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return statusError("knowledge upsert", resp)
		}
		return nil
	})
}

// SearchTools queries the knowledge collection and folds chunk hits into
// per-tool hits, keeping each tool's best chunk score. Chunk limit is
// oversampled so several chunks of the same entry cannot crowd out other
// tools.
func (c *KnowledgeClient) SearchTools(
	ctx context.Context,
	queryVector []float32,
	limit int,
) ([]domain.SearchHit, error) {
	if len(queryVector) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	reqBody := map[string]any{
		"query":        queryVector,
		"limit":        limit * 3,
		"with_payload": true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal knowledge query body: %w", err)
	}

	var points []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	}
	err = c.execute(ctx, "qdrant.knowledge.query", func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create knowledge query request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("knowledge query request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return statusError("knowledge query", resp)
		}

		var queryResp struct {
			Result struct {
				Points []struct {
					Score   float64        `json:"score"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
			return fmt.Errorf("decode knowledge query response: %w", err)
		}
		points = queryResp.Result.Points
		return nil
	})
	if err != nil {
		return nil, err
	}

	best := make(map[string]float64, len(points))
	order := make([]string, 0, len(points))
	for _, point := range points {
		toolID := toolIDFromPayload(point.Payload, "")
		if toolID == "" {
			continue
		}
		if score, seen := best[toolID]; !seen || point.Score > score {
			if !seen {
				order = append(order, toolID)
			}
			best[toolID] = point.Score
		}
	}

	out := make([]domain.SearchHit, 0, len(best))
	for _, toolID := range order {
		score := best[toolID]
		out = append(out, domain.SearchHit{
			ToolID:   toolID,
			RAGScore: &score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if *out[i].RAGScore != *out[j].RAGScore {
			return *out[i].RAGScore > *out[j].RAGScore
		}
		return out[i].ToolID < out[j].ToolID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *KnowledgeClient) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	return c.execute(ctx, "qdrant.knowledge.ensure", func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create collection request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("knowledge ensure collection request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusConflict {
			c.markEnsured(vectorSize)
			return nil
		}
		if resp.StatusCode >= 300 {
			return statusError("knowledge ensure collection", resp)
		}
		c.markEnsured(vectorSize)
		return nil
	})
}

func (c *KnowledgeClient) markEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}
