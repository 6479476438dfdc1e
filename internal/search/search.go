package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/models"
)

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("svc", "search.client")

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}

	l.Info("elasticsearch_connected", "url", url)
	return client, nil
}

// ContactIndex mirrors contacts into one Elasticsearch index. Every query is
// filtered by owner; the store stays the source of truth.
type ContactIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewContactIndex(es *elasticsearch.Client, index string) *ContactIndex {
	return &ContactIndex{es: es, index: index}
}

type document struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	AdditionalData string `json:"additional_data,omitempty"`
	Birthday       string `json:"birthday"`
}

func toDocument(c *models.Contact) document {
	d := document{
		ID:          c.ID,
		UserID:      c.UserID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Birthday:    c.Birthday.Format("2006-01-02"),
	}
	if c.AdditionalData != nil {
		d.AdditionalData = *c.AdditionalData
	}
	return d
}

var textFields = []string{"first_name", "last_name", "email", "phone_number", "additional_data"}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":              map[string]any{"type": "long"},
			"user_id":         map[string]any{"type": "long"},
			"first_name":      map[string]any{"type": "keyword"},
			"last_name":       map[string]any{"type": "keyword"},
			"email":           map[string]any{"type": "keyword"},
			"phone_number":    map[string]any{"type": "keyword"},
			"additional_data": map[string]any{"type": "keyword"},
			"birthday":        map[string]any{"type": "date", "format": "yyyy-MM-dd"},
		},
	},
}

func encode(v any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return &buf, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(body)
	return fmt.Errorf("elasticsearch %s: %s: %s", op, status, strings.TrimSpace(string(b)))
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
func (ix *ContactIndex) EnsureIndex(ctx context.Context) error {
	res, err := ix.es.Indices.Exists([]string{ix.index}, ix.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	body, err := encode(indexMapping)
	if err != nil {
		return err
	}
	res, err = ix.es.Indices.Create(ix.index,
		ix.es.Indices.Create.WithContext(ctx),
		ix.es.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (ix *ContactIndex) Index(ctx context.Context, c *models.Contact) error {
	body, err := encode(toDocument(c))
	if err != nil {
		return err
	}
	res, err := ix.es.Index(ix.index, body,
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(strconv.FormatUint(uint64(c.ID), 10)),
		ix.es.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res.Status(), res.Body)
	}
	return nil
}

func (ix *ContactIndex) Delete(ctx context.Context, id uint) error {
	res, err := ix.es.Delete(ix.index, strconv.FormatUint(uint64(id), 10),
		ix.es.Delete.WithContext(ctx),
		ix.es.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res.Status(), res.Body)
	}
	return nil
}

var ErrBadResponse = errors.New("elasticsearch: malformed search response")

// Search returns matching contact ids in score order.
func (ix *ContactIndex) Search(ctx context.Context, userID uint, text string, from, size int) ([]uint, error) {
	pattern := "*" + escapeWildcard(strings.ToLower(text)) + "*"
	should := make([]any, 0, len(textFields))
	for _, f := range textFields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				f: map[string]any{"value": pattern, "case_insensitive": true},
			},
		})
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter":               []any{map[string]any{"term": map[string]any{"user_id": userID}}},
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
		"sort":    []any{"_score", map[string]any{"id": "asc"}},
	}

	body, err := encode(query)
	if err != nil {
		return nil, err
	}
	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.index),
		ix.es.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
