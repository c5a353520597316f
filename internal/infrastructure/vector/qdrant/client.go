package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mkraev/toolmatch/internal/core/domain"
	"github.com/mkraev/toolmatch/internal/infrastructure/resilience"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

// Client indexes and searches the tool collection. Each tool is one point
// carrying a dense embedding and a sparse lexical vector, so the same
// collection serves the vector, keyword and hybrid strategies.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

type Options struct {
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, collection string) *Client {
	return NewWithOptions(baseURL, collection, Options{})
}

func NewWithOptions(baseURL, collection string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: requestTimeout},
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor != nil {
		return c.executor.Execute(ctx, operation, call, classifyQdrantError)
	}
	return call(ctx)
}

func (c *Client) IndexTool(ctx context.Context, tool domain.Tool, vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx, len(vector)); err != nil {
		return err
	}

	sparse := encodeSparseDocument(tool.Description, tool.Name)
	point := map[string]any{
		"id": tool.ID,
		"vector": map[string]any{
			denseVectorName:  vector,
			sparseVectorName: sparse,
		},
		"payload": map[string]any{
			"tool_id":    tool.ID,
			"name":       tool.Name,
			"category":   tool.Category,
			"price_from": tool.PriceFrom,
			"is_free":    tool.IsFree,
		},
	}

	body, err := json.Marshal(map[string]any{"points": []map[string]any{point}})
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	return c.execute(ctx, "qdrant.upsert", func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create upsert request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant upsert request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError("qdrant upsert", resp)
		}
		return nil
	})
}

func (c *Client) SearchVector(
	ctx context.Context,
	queryVector []float32,
	limit int,
	prefs *domain.Preferences,
) ([]domain.SearchHit, error) {
	reqBody := map[string]any{
		"query":        queryVector,
		"using":        denseVectorName,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := buildPreferenceFilter(prefs); filter != nil {
		reqBody["filter"] = filter
	}

	results, err := c.queryPoints(ctx, reqBody, "vector search")
	if err != nil {
		return nil, err
	}

	out := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		score := r.Score
		out = append(out, domain.SearchHit{
			ToolID:      toolIDFromPayload(r.Payload, r.ID),
			VectorScore: &score,
		})
	}
	return out, nil
}

func (c *Client) SearchKeyword(
	ctx context.Context,
	queryText string,
	limit int,
	prefs *domain.Preferences,
) ([]domain.SearchHit, error) {
	sparse := encodeSparseQuery(queryText)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"query":        sparse,
		"using":        sparseVectorName,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := buildPreferenceFilter(prefs); filter != nil {
		reqBody["filter"] = filter
	}

	results, err := c.queryPoints(ctx, reqBody, "keyword search")
	if err != nil {
		return nil, err
	}

	out := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		score := r.Score
		out = append(out, domain.SearchHit{
			ToolID: toolIDFromPayload(r.Payload, r.ID),
			Score:  &score,
		})
	}
	return out, nil
}

type queryResult struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (c *Client) queryPoints(ctx context.Context, reqBody map[string]any, operation string) ([]queryResult, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", operation, err)
	}

	var points []queryResult
	err = c.execute(ctx, "qdrant.query", func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s/points/query", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError("qdrant "+operation, resp)
		}

		var queryResp struct {
			Result struct {
				Points []queryResult `json:"points"`
			} `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		points = queryResp.Result.Points
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}

func buildPreferenceFilter(prefs *domain.Preferences) map[string]any {
	if prefs == nil {
		return nil
	}

	must := make([]map[string]any, 0, 3)
	if len(prefs.Categories) > 0 {
		must = append(must, map[string]any{
			"key":   "category",
			"match": map[string]any{"any": prefs.Categories},
		})
	}
	if prefs.FreeToolsOnly {
		must = append(must, map[string]any{
			"key":   "is_free",
			"match": map[string]any{"value": true},
		})
	}
	if prefs.MaxPrice > 0 {
		must = append(must, map[string]any{
			"key":   "price_from",
			"range": map[string]any{"lte": prefs.MaxPrice},
		})
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	return c.execute(ctx, "qdrant.ensure", func(callCtx context.Context) error {
		url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
		req, err := http.NewRequestWithContext(callCtx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create collection request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant ensure collection request: %w", err)
		}
		defer resp.Body.Close()

		// 200/201 for create, 409 if already exists (depends on version/config).
		if resp.StatusCode == http.StatusConflict {
			c.markCollectionEnsured(vectorSize)
			return nil
		}
		if resp.StatusCode >= 300 {
			return statusError("qdrant ensure collection", resp)
		}
		c.markCollectionEnsured(vectorSize)
		return nil
	})
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func toolIDFromPayload(payload map[string]any, fallback string) string {
	v, ok := payload["tool_id"]
	if !ok {
		return fallback
	}
	s, ok := v.(string)
	if ok && s != "" {
		return s
	}
	return fallback
}
