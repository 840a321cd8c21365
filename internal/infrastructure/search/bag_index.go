// Package search indexes public bags in Elasticsearch for the bag search screen.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

type BagIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

func NewBagIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *BagIndex {
	return &BagIndex{es: es, index: index, logger: logger}
}

type bagDoc struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Emoji            string    `json:"emoji"`
	ImageURL         string    `json:"image_url"`
	OwnerDisplayName string    `json:"owner_display_name"`
	OwnerUsername    string    `json:"owner_username"`
	FollowersCount   int       `json:"followers_count"`
	ItemCount        int       `json:"item_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toDoc(b entity.PublicBag) bagDoc {
	return bagDoc{
		ID: b.ID, UserID: b.UserID, Name: b.Name, Emoji: b.Emoji, ImageURL: b.ImageURL,
		OwnerDisplayName: b.OwnerDisplayName, OwnerUsername: b.OwnerUsername,
		FollowersCount: b.FollowersCount, ItemCount: b.ItemCount, UpdatedAt: b.UpdatedAt,
	}
}

func (d bagDoc) toEntity() entity.PublicBag {
	return entity.PublicBag{
		Bag: entity.Bag{ID: d.ID, UserID: d.UserID, Name: d.Name, Emoji: d.Emoji, ImageURL: d.ImageURL,
			FollowersCount: d.FollowersCount, UpdatedAt: d.UpdatedAt},
		OwnerDisplayName: d.OwnerDisplayName,
		OwnerUsername:    d.OwnerUsername,
		ItemCount:        d.ItemCount,
	}
}

// IndexBag upserts the bag document.
func (i *BagIndex) IndexBag(ctx context.Context, b entity.PublicBag) error {
	body, err := json.Marshal(toDoc(b))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: i.index, DocumentID: b.ID, Body: bytes.NewReader(body), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("es index bag: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		if i.logger != nil {
			i.logger.WithField("status", res.Status()).WithField("bag_id", b.ID).Warn("es index response error")
		}
		return fmt.Errorf("es index bag: %s", res.Status())
	}
	return nil
}

// DeleteBag removes a bag that is no longer public.
func (i *BagIndex) DeleteBag(ctx context.Context, bagID string) error {
	req := esapi.DeleteRequest{Index: i.index, DocumentID: bagID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("es delete bag: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete bag: %s", res.Status())
	}
	return nil
}

// SearchBags runs a multi_match over bag and owner names.
func (i *BagIndex) SearchBags(ctx context.Context, q string, size int) ([]entity.PublicBag, error) {
	if size <= 0 || size > 50 {
		size = 20
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"name^2", "owner_display_name", "owner_username"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := i.es.Search(i.es.Search.WithContext(c), i.es.Search.WithIndex(i.index), i.es.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, fmt.Errorf("es search bags: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search bags: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source bagDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]entity.PublicBag, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.toEntity())
	}
	return out, nil
}
