package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/yungbote/chatcortex/internal/platform/apierr"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// CohereRerankProvider implements retrieval.Reranker against Cohere's
// rerank endpoint, following the same request/response-shape isolation
// OpenAIProvider uses for chat completions (spec.md §4.6's rerank provider
// contract: "rerank(query, [candidate text]) -> [score]. Disabled
// providers return pass-through scores" — the pass-through case is the
// caller passing a nil Reranker into retrieval.NewEngine, not this type).
type CohereRerankProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewCohereRerankProvider(apiKey, model, baseURL string, log *logger.Logger) *CohereRerankProvider {
	if baseURL == "" {
		baseURL = "https://api.cohere.com/v2"
	}
	if model == "" {
		model = "rerank-v3.5"
	}
	transport := &http.Transport{
		IdleConnTimeout: 30 * time.Second,
		DialContext:     (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
	}
	return &CohereRerankProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
		log:        log.With("component", "llm.CohereRerankProvider"),
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score implements retrieval.Reranker. Returned scores are positioned by
// original index, not by the response's relevance-sorted order.
func (p *CohereRerankProvider) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Model: p.model, Query: query, Documents: texts})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.New(0, "transport_error", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.New(resp.StatusCode, "read_body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apierr.New(resp.StatusCode, "rerank_http_error", fmt.Errorf("%s", string(raw)))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apierr.New(resp.StatusCode, "decode_error", err)
	}

	scores := make([]float64, len(texts))
	for _, r := range parsed.Results {
		if r.Index >= 0 && r.Index < len(scores) {
			scores[r.Index] = r.RelevanceScore
		}
	}
	return scores, nil
}
