package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// NewESClient creates an Elasticsearch client with sane defaults and optional basic auth.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

// ActivityIndex keeps a searchable copy of activities in one index.
// Documents carry user_id so queries can be filtered to the owner.
type ActivityIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewActivityIndex(es *elasticsearch.Client, index string) *ActivityIndex {
	return &ActivityIndex{es: es, index: index}
}

// activityMapping keeps ids as keyword so the owner filter matches the whole
// UUID instead of its hyphen-separated tokens.
var activityMapping = map[string]any{
	"mappings": map[string]any{
		"dynamic": "strict",
		"properties": map[string]any{
			"id":          map[string]any{"type": "keyword"},
			"user_id":     map[string]any{"type": "keyword"},
			"title":       map[string]any{"type": "text"},
			"category":    map[string]any{"type": "keyword"},
			"description": map[string]any{"type": "text"},
			"note":        map[string]any{"type": "text"},
			"completed":   map[string]any{"type": "boolean"},
			"time":        map[string]any{"type": "date"},
			"created_at":  map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (i *ActivityIndex) EnsureIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.es)
	if err != nil {
		return err
	}
	_ = exists.Body.Close()
	switch {
	case exists.StatusCode == http.StatusOK:
		return nil
	case exists.StatusCode != http.StatusNotFound:
		return fmt.Errorf("es index exists %s: %s", i.index, exists.Status())
	}

	body, err := json.Marshal(activityMapping)
	if err != nil {
		return err
	}
	res, err := esapi.IndicesCreateRequest{Index: i.index, Body: bytes.NewReader(body)}.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		var e struct {
			Error struct {
				Type string `json:"type"`
			} `json:"error"`
		}
		// another instance won the race
		if json.NewDecoder(res.Body).Decode(&e) == nil && e.Error.Type == "resource_already_exists_exception" {
			return nil
		}
		return fmt.Errorf("es create index %s: %s", i.index, res.Status())
	}
	return nil
}

type activityDoc struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Note        string `json:"note"`
	Completed   bool   `json:"completed"`
	Time        string `json:"time"`
	CreatedAt   string `json:"created_at"`
}

func (i *ActivityIndex) Index(ctx context.Context, a entity.Activity) error {
	body, err := json.Marshal(activityDoc{
		ID:          a.ID,
		UserID:      a.UserID,
		Title:       a.Title,
		Category:    a.Category.String(),
		Description: a.Description,
		Note:        a.Note,
		Completed:   a.Completed,
		Time:        a.Time.Format(time.RFC3339Nano),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: a.ID, Body: bytes.NewReader(body), Refresh: "false"}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", a.ID, res.Status())
	}
	return nil
}

func (i *ActivityIndex) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match over title, description and note restricted to
// userID and returns the matching ids by score.
func (i *ActivityIndex) Search(ctx context.Context, userID, query string, size int) ([]string, error) {
	q := map[string]any{
		"size":    size,
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": userID}},
				},
				"must": []any{
					map[string]any{"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^3", "description", "note"},
						"fuzziness": "AUTO",
					}},
				},
			},
		},
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
