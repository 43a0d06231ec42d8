// Genre prediction [GenreClassifier] implementation
//
// Communicates with the genre-prediction FastAPI service, which scores a
// track's 30-second preview audio against a fixed set of genre labels.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
)

const defaultClassifierBaseURL = "http://127.0.0.1:8000"

// ClassifierService implements [GenreClassifier] against the prediction API.
type ClassifierService struct {
	baseURL    string
	mode       string // "fast" or "best"
	httpClient *http.Client
}

// NewClassifierService creates a prediction API client. The mode is validated
// here because an invalid mode is a caller error, not a service error.
func NewClassifierService(baseURL, mode string, client *http.Client) (*ClassifierService, error) {
	if baseURL == "" {
		baseURL = defaultClassifierBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	if mode != "fast" && mode != "best" {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidMode, mode)
	}

	return &ClassifierService{
		baseURL:    baseURL,
		mode:       mode,
		httpClient: client,
	}, nil
}

func (c *ClassifierService) Name() string {
	return "Genre Prediction"
}

type predictionRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

type predictionResponse struct {
	Genres  map[string]float64 `json:"genres"`
	Elapsed float64            `json:"elapsed"`
}

// Predict scores the preview audio at previewURL and returns genre confidences.
func (c *ClassifierService) Predict(ctx context.Context, previewURL string) (map[string]float64, error) {
	payload, err := json.Marshal(predictionRequest{URL: previewURL, Mode: c.mode})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrClassification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("%w: status %d: %s", shared.ErrClassification, resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("%w: status %d", shared.ErrClassification, resp.StatusCode)
	}

	var result predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrClassification, err)
	}

	if result.Genres == nil {
		return nil, fmt.Errorf("%w: response missing genres", shared.ErrClassification)
	}

	return result.Genres, nil
}
