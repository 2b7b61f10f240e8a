package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/aqi-nextday/internal/upstream"
)

const DefaultJSONBinURL = "https://api.jsonbin.io/v3"

// JSONBinStore keeps the document in a single JSONBin bin.
type JSONBinStore struct {
	baseURL string
	binID   string
	apiKey  string
	client  *upstream.Client
}

func NewJSONBinStore(client *http.Client, baseURL, binID, apiKey string) *JSONBinStore {
	if baseURL == "" {
		baseURL = DefaultJSONBinURL
	}
	return &JSONBinStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		binID:   binID,
		apiKey:  apiKey,
		client:  upstream.New("jsonbin-"+binID, client, upstream.NoRetry),
	}
}

func (s *JSONBinStore) binURL() string {
	return fmt.Sprintf("%s/b/%s", s.baseURL, s.binID)
}

// Latest reads GET /b/{id}/latest and decodes its "record" field.
func (s *JSONBinStore) Latest(ctx context.Context, out any) error {
	resp, err := s.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, s.binURL()+"/latest", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Master-Key", s.apiKey)
		return req, nil
	})
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Record json.RawMessage `json:"record"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jsonbin payload: %w", err)
	}
	if len(payload.Record) == 0 || string(payload.Record) == "null" {
		return ErrNotFound
	}
	return json.Unmarshal(payload.Record, out)
}

// Replace writes the whole document with PUT /b/{id}.
func (s *JSONBinStore) Replace(ctx context.Context, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPut, s.binURL(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Master-Key", s.apiKey)
		return req, nil
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
