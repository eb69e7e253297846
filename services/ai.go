package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Cloudflare Workers AI adapter. Vision models take the image as an array of
// integers 0-255 (not base64), Whisper takes multipart form data, and text
// generation uses the messages API.

const (
	modelVision  = "@cf/llava-hf/llava-1.5-7b-hf"
	modelWhisper = "@cf/openai/whisper"
	modelText    = "@cf/meta/llama-3-8b-instruct"

	visionTimeout = 30 * time.Second
	audioTimeout  = 60 * time.Second
	textTimeout   = 45 * time.Second
)

// VisionAPI describes an image with a free-form prompt.
type VisionAPI interface {
	DescribeImage(ctx context.Context, image []byte, prompt string) (string, error)
}

// SpeechAPI transcribes an audio clip.
type SpeechAPI interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// TextAPI generates free text from a prompt; used for recipe synthesis.
type TextAPI interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrAIUnavailable = errors.New("AI provider not configured")

type CloudflareAIService struct {
	accountID string
	apiToken  string
	baseURL   string
	client    *http.Client
}

func NewCloudflareAIService(accountID, apiToken string) *CloudflareAIService {
	return &CloudflareAIService{
		accountID: accountID,
		apiToken:  apiToken,
		baseURL:   "https://api.cloudflare.com/client/v4/accounts",
		client:    &http.Client{},
	}
}

func (s *CloudflareAIService) configured() bool {
	return s.accountID != "" && s.apiToken != ""
}

func (s *CloudflareAIService) modelURL(model string) string {
	return fmt.Sprintf("%s/%s/ai/run/%s", s.baseURL, s.accountID, model)
}

type cfEnvelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
}

func (s *CloudflareAIService) post(ctx context.Context, model string, body io.Reader, contentType string, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.modelURL(model), body)
	if err != nil {
		return nil, fmt.Errorf("build cloudflare request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call cloudflare AI: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cloudflare response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloudflare AI error %d: %s", resp.StatusCode, string(raw))
	}

	var env cfEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parse cloudflare envelope: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("cloudflare AI reported failure: %s", string(raw))
	}
	return env.Result, nil
}

func bytesToIntArray(data []byte) []int {
	out := make([]int, len(data))
	for i, b := range data {
		out[i] = int(b)
	}
	return out
}

// DescribeImage asks the vision model what is in the photo. An empty result
// is returned as ("", nil); callers treat it like a lookup miss.
func (s *CloudflareAIService) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	if !s.configured() {
		return "", ErrAIUnavailable
	}

	payload, err := json.Marshal(map[string]any{
		"image":      bytesToIntArray(image),
		"prompt":     prompt,
		"max_tokens": 64,
	})
	if err != nil {
		return "", err
	}

	result, err := s.post(ctx, modelVision, bytes.NewReader(payload), "application/json", visionTimeout)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", fmt.Errorf("parse vision result: %w", err)
	}
	return strings.TrimSpace(parsed.Description), nil
}

// Transcribe runs Whisper over an audio clip (multipart upload).
func (s *CloudflareAIService) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if !s.configured() {
		return "", ErrAIUnavailable
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "voice.ogg")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if language != "" {
		_ = w.WriteField("language", language)
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	result, err := s.post(ctx, modelWhisper, &buf, w.FormDataContentType(), audioTimeout)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", fmt.Errorf("parse whisper result: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}

// Generate produces free text (recipes) via the instruct model.
func (s *CloudflareAIService) Generate(ctx context.Context, prompt string) (string, error) {
	if !s.configured() {
		return "", ErrAIUnavailable
	}

	payload, err := json.Marshal(map[string]any{
		"messages": []map[string]string{
			{"role": "system", "content": "You are a culinary assistant. Answer with one complete recipe, plain text."},
			{"role": "user", "content": prompt},
		},
		"max_tokens": 900,
	})
	if err != nil {
		return "", err
	}

	result, err := s.post(ctx, modelText, bytes.NewReader(payload), "application/json", textTimeout)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return "", fmt.Errorf("parse text result: %w", err)
	}
	return strings.TrimSpace(parsed.Response), nil
}
