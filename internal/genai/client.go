// Package genai builds and issues generation requests. It never persists
// anything; callers own the transcript.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"soulcare/internal/metrics"
	"soulcare/internal/storage"
)

const (
	emptyReplyText = "I couldn't generate a response. Please try again."
	apologyText    = "I encountered an error connecting to the AI. Please check your connection or API key."
)

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-3-pro-preview"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Global()
	}
	return &Client{cfg: cfg}
}

// Source is one web citation the response was grounded on.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Reply is the normalized generation result. Sources is nil unless grounding
// metadata carried web citations.
type Reply struct {
	Text    string
	Sources []Source
}

type genPart struct {
	Text string `json:"text"`
}

type genContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []genPart `json:"parts"`
}

type genTool struct {
	GoogleSearch struct{} `json:"googleSearch"`
}

type genRequest struct {
	Contents          []genContent `json:"contents"`
	SystemInstruction genContent   `json:"systemInstruction"`
	Tools             []genTool    `json:"tools,omitempty"`
}

// Send issues one generation call for the new user turn with the retained
// prior context. It never fails the caller: any endpoint error collapses to
// a fixed apology reply with no sources. No retry, no streaming.
func (c *Client) Send(ctx context.Context, prior []storage.Message, text string, useSearch bool) Reply {
	c.cfg.Metrics.GenerationRequests.Inc()

	body, err := buildPayload(prior, text, useSearch)
	if err != nil {
		return c.recover(err)
	}

	reply, err := c.callOnce(ctx, body)
	if err != nil {
		return c.recover(err)
	}
	return reply
}

func (c *Client) recover(err error) Reply {
	c.cfg.Metrics.GenerationFailures.Inc()
	c.cfg.Logger.Error().Err(err).Msg("generation call failed")
	return Reply{Text: apologyText}
}

// buildPayload assembles the outbound request: the most recent turns of the
// prior context, then the new user turn with its augmentations, plus the
// fixed system instruction and, when requested, the grounding tool.
func buildPayload(prior []storage.Message, text string, useSearch bool) ([]byte, error) {
	recent := prior
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}

	contents := make([]genContent, 0, len(recent)+1)
	for _, msg := range recent {
		role := storage.RoleModel
		if msg.Role == storage.RoleUser {
			role = storage.RoleUser
		}
		contents = append(contents, genContent{Role: role, Parts: []genPart{{Text: msg.Content}}})
	}
	contents = append(contents, genContent{
		Role:  storage.RoleUser,
		Parts: []genPart{{Text: augmentPrompt(text, useSearch)}},
	})

	req := genRequest{
		Contents:          contents,
		SystemInstruction: genContent{Parts: []genPart{{Text: systemInstruction}}},
	}
	if useSearch {
		req.Tools = []genTool{{}}
	}

	b, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generation payload: %w", err)
	}
	return b, nil
}

func (c *Client) callOnce(ctx context.Context, body []byte) (Reply, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Reply{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("generation endpoint status %d", resp.StatusCode)
	}

	return parseResponse(respBody)
}

func parseResponse(body []byte) (Reply, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			GroundingMetadata struct {
				GroundingChunks []struct {
					Web *struct {
						URI   string `json:"uri"`
						Title string `json:"title"`
					} `json:"web"`
				} `json:"groundingChunks"`
			} `json:"groundingMetadata"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Reply{}, fmt.Errorf("decode generation response: %w", err)
	}

	out := Reply{}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]

		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		out.Text = sb.String()

		seen := map[string]bool{}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || seen[chunk.Web.URI] {
				continue
			}
			seen[chunk.Web.URI] = true
			out.Sources = append(out.Sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}

	if strings.TrimSpace(out.Text) == "" {
		out.Text = emptyReplyText
	}
	return out, nil
}
