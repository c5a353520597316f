package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mkraev/toolmatch/internal/core/domain"
	"github.com/mkraev/toolmatch/internal/core/ports"
	"github.com/mkraev/toolmatch/internal/core/usecase"
	"github.com/mkraev/toolmatch/internal/observability/metrics"
)

type RouterOptions struct {
	Service       string
	Metrics       *metrics.HTTPServerMetrics
	RateLimitRPS  float64
	RateBurst     int
	MaxConcurrent int
}

type Router struct {
	recommender ports.Recommender
	classifier  *usecase.TaskTypeClassifier
	catalogUC   *usecase.CatalogUseCase
	ingestor    ports.KnowledgeIngestor
	knowledge   ports.KnowledgeReader
	opts        RouterOptions
}

func NewRouter(
	recommender ports.Recommender,
	classifier *usecase.TaskTypeClassifier,
	catalogUC *usecase.CatalogUseCase,
	ingestor ports.KnowledgeIngestor,
	knowledge ports.KnowledgeReader,
	opts RouterOptions,
) *Router {
	if opts.Service == "" {
		opts.Service = "toolmatch-api"
	}
	return &Router{
		recommender: recommender,
		classifier:  classifier,
		catalogUC:   catalogUC,
		ingestor:    ingestor,
		knowledge:   knowledge,
		opts:        opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/recommendations", rt.recommend)
	mux.HandleFunc("/v1/recommendations/batch", rt.recommendBatch)
	mux.HandleFunc("/v1/tasks/classify", rt.classify)
	mux.HandleFunc("/v1/tools", rt.createTool)
	mux.HandleFunc("/v1/tools/", rt.getToolByID)
	mux.HandleFunc("/v1/knowledge", rt.createKnowledge)
	mux.HandleFunc("/v1/knowledge/", rt.getKnowledgeByID)

	var handler http.Handler = mux
	if rt.opts.Metrics != nil {
		mux.Handle("/metrics", rt.opts.Metrics.Handler())
		handler = rt.opts.Metrics.Middleware(rt.opts.Service, handler)
	}
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateBurst)
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, defaultBackpressureWait)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.TaskName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task_name is required"})
		return
	}

	rec := rt.recommender.Recommend(r.Context(), domain.RecommendationRequest{
		TaskID:      req.TaskID,
		TaskName:    req.TaskName,
		Preferences: req.Preferences,
		UserContext: req.UserContext,
	})
	rt.recordRecommendation(rec)

	writeJSON(w, http.StatusOK, toRecommendationResponse(rec))
}

func (rt *Router) recommendBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req batchRecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.Tasks) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tasks is required"})
		return
	}
	for _, task := range req.Tasks {
		if strings.TrimSpace(task.Name) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "every task needs a name"})
			return
		}
	}

	recs := rt.recommender.RecommendBatch(r.Context(), req.Tasks, req.Preferences, req.UserContext)
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordBatch(rt.opts.Service, len(req.Tasks))
	}

	out := batchRecommendResponse{
		Recommendations: make([]recommendationResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		rt.recordRecommendation(rec)
		out.Recommendations = append(out.Recommendations, toRecommendationResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.TaskName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "task_name is required"})
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		TaskType: rt.classifier.Detect(req.TaskName),
	})
}

func (rt *Router) createTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var tool domain.Tool
	if err := json.NewDecoder(r.Body).Decode(&tool); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	created, err := rt.catalogUC.Create(r.Context(), &tool)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rt *Router) getToolByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/tools/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tool id is required"})
		return
	}

	tool, err := rt.catalogUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (rt *Router) createKnowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req createKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	entry, err := rt.ingestor.Create(r.Context(), req.ToolID, req.Title, req.Content, req.QualityScore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, entry)
}

func (rt *Router) getKnowledgeByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/knowledge/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "knowledge entry id is required"})
		return
	}

	entry, err := rt.knowledge.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) recordRecommendation(rec domain.Recommendation) {
	if rt.opts.Metrics == nil {
		return
	}
	rt.opts.Metrics.RecordRecommendation(
		rt.opts.Service,
		string(rec.Outcome),
		string(rec.TaskType),
		string(rec.SearchStrategy),
		rec.SearchDuration,
		rec.RerankDuration,
		rec.FinalScore,
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
