package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PicaSender asks the Pica automation service to email the message using a
// natural-language command.
type PicaSender struct {
	secretKey string
	endpoint  string
	client    *http.Client
}

func NewPicaSender(secretKey, endpoint string, client *http.Client) *PicaSender {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &PicaSender{secretKey: secretKey, endpoint: strings.TrimRight(endpoint, "/"), client: client}
}

func (p *PicaSender) Name() string { return "pica" }

type picaRequest struct {
	Command string `json:"command"`
	Type    string `json:"type"`
}

// Command is the instruction sent to Pica for msg.
func Command(msg Message) string {
	return fmt.Sprintf("post the following message to email: %s with subject %s to %s", msg.Body, msg.Subject, msg.Recipient)
}

func (p *PicaSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	payload, err := json.Marshal(picaRequest{Command: Command(msg), Type: "natural_language"})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/execute", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pica request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read pica response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("pica returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return string(bytes.TrimSpace(body)), nil
}
