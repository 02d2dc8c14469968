package service

import (
	"fmt"
	"strings"

	"aira/internal/model"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchIndex is an in-memory full-text index over property name, location
// and description. Hits are property ids.
type SearchIndex struct {
	index bleve.Index
}

// NewSearchIndex creates an empty in-memory index
func NewSearchIndex() (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &SearchIndex{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	propertyMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = false
	textFieldMapping.Index = true
	propertyMapping.AddFieldMappingsAt("name", textFieldMapping)
	propertyMapping.AddFieldMappingsAt("location", textFieldMapping)
	propertyMapping.AddFieldMappingsAt("description", textFieldMapping)

	indexMapping.DefaultMapping = propertyMapping
	return indexMapping
}

func searchDocument(p model.Property) map[string]interface{} {
	return map[string]interface{}{
		"name":        p.Name,
		"location":    p.Location,
		"description": p.Description,
	}
}

// Index adds or replaces one property
func (s *SearchIndex) Index(p model.Property) error {
	if err := s.index.Index(p.ID, searchDocument(p)); err != nil {
		return fmt.Errorf("failed to index property %s: %w", p.ID, err)
	}
	return nil
}

// IndexAll adds every property in one batch
func (s *SearchIndex) IndexAll(properties []model.Property) error {
	batch := s.index.NewBatch()
	for _, p := range properties {
		if err := batch.Index(p.ID, searchDocument(p)); err != nil {
			return fmt.Errorf("failed to add to batch: %w", err)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Search returns matching property ids, best match first
func (s *SearchIndex) Search(query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}

	nameQuery := bleve.NewMatchQuery(query)
	nameQuery.SetField("name")
	nameQuery.SetBoost(3.0)

	locationQuery := bleve.NewMatchQuery(query)
	locationQuery.SetField("location")
	locationQuery.SetBoost(2.0)

	descriptionQuery := bleve.NewMatchQuery(query)
	descriptionQuery.SetField("description")

	// Prefix match on name so partial words still hit while typing
	prefixQuery := bleve.NewPrefixQuery(strings.ToLower(query))
	prefixQuery.SetField("name")
	prefixQuery.SetBoost(1.5)

	searchQuery := bleve.NewDisjunctionQuery(nameQuery, locationQuery, descriptionQuery, prefixQuery)
	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.Size = limit

	results, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]string, 0, len(results.Hits))
	for _, hit := range results.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count returns the number of indexed properties
func (s *SearchIndex) Count() (uint64, error) {
	return s.index.DocCount()
}

// Close releases the index
func (s *SearchIndex) Close() error {
	return s.index.Close()
}
