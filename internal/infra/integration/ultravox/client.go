package ultravox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"calldrip/internal/infra/queue"
)

// Client talks to the Ultravox calling API. It implements queue.CallInitiator.
type Client struct {
	baseURL    string
	apiKey     string
	fromNumber string
	http       *http.Client
}

func NewClient(apiKey, baseURL, fromNumber string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		fromNumber: fromNumber,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// InitiateCall places the outbound call and returns the provider's call id.
func (c *Client) InitiateCall(ctx context.Context, req queue.CallRequest) (string, error) {
	url := fmt.Sprintf("%s/api/calls", c.baseURL)

	payload := initiateCallRequest{
		PhoneNumber:     req.Phone,
		Script:          req.Script,
		ScriptVariables: req.Variables,
		CallbackURL:     req.CallbackURL,
		VoiceType:       req.Voice,
		Language:        req.Language,
		FirstMessage:    req.FirstMessage,
		TelnyxConfig:    telnyxConfig{FromNumber: c.fromNumber},
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal call request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ultravox request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("❌ [ULTRAVOX] call failed (status %d): %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("ultravox call failed (status %d)", resp.StatusCode)
	}

	var response initiateCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode ultravox response: %w", err)
	}

	log.Printf("[ULTRAVOX] call initiated: %s (%s)", response.CallID, response.Status)
	return response.CallID, nil
}
