package embedding

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

// OpenAIProvider calls the embeddings endpoint directly. The inner HTTP
// client is tuned with short pooled-connection lifetime and a 10s connect
// timeout per spec.md §4.4's "guard against stale keep-alives with proxy
// fronted providers".
type OpenAIProvider struct {
	apiKey string
	model  string
	baseURL string
	httpClient *http.Client
	log    *logger.Logger
}

func NewOpenAIProvider(apiKey, model, baseURL string, log *logger.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	transport := &http.Transport{
		IdleConnTimeout:    30 * time.Second,
		DialContext:        (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		DisableCompression: false,
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{Transport: transport},
		log:     log.With("component", "embedding.OpenAIProvider"),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apierr.New(0, "transport_error", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.New(resp.StatusCode, "read_body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.New(resp.StatusCode, "embedding_http_error", fmt.Errorf("%s", string(raw)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apierr.New(resp.StatusCode, "decode_error", err)
	}
	if parsed.Error != nil {
		return nil, apierr.New(resp.StatusCode, parsed.Error.Type, fmt.Errorf("%s", parsed.Error.Message))
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}
