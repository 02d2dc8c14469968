package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aira/internal/model"
	"aira/internal/repository"
	"aira/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Listing defaults
const (
	PlaceholderYield     = "5.0%"
	PropertyAddedMessage = "Property added successfully"
	ImageUploadedMessage = "Image uploaded to IPFS successfully"
	defaultSearchLimit   = 50
	defaultSimilarLimit  = 5
	maxSimilarLimit      = 50
)

var (
	// ErrInvalidListing is returned when the listing form cannot be turned into a property
	ErrInvalidListing = errors.New("invalid listing")

	// ErrSimilarUnsupported is returned when no vector store or embedder is wired
	ErrSimilarUnsupported = errors.New("similar property search is not available")

	// ErrPropertyNotFound is returned by operations that need an existing property
	ErrPropertyNotFound = errors.New("property not found")
)

// PropertyService handles listing, search and creation of properties
type PropertyService struct {
	store      repository.PropertyStore
	vectors    repository.VectorStore
	embedder   Embedder
	pinner     Pinner
	index      *SearchIndex
	gatewayURL string
	logger     *zap.Logger
}

// NewPropertyService creates a property service. vectors and embedder may be
// nil, in which case Similar reports ErrSimilarUnsupported. The search index
// is built from the store's current contents.
func NewPropertyService(
	ctx context.Context,
	store repository.PropertyStore,
	vectors repository.VectorStore,
	embedder Embedder,
	pinner Pinner,
	gatewayURL string,
	logger *zap.Logger,
) (*PropertyService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := NewSearchIndex()
	if err != nil {
		return nil, err
	}
	properties, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	if err := index.IndexAll(properties); err != nil {
		return nil, err
	}
	logger.Info("🔎 Search index built", zap.Int("properties", len(properties)))

	return &PropertyService{
		store:      store,
		vectors:    vectors,
		embedder:   embedder,
		pinner:     pinner,
		index:      index,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		logger:     logger,
	}, nil
}

// Close releases the search index
func (s *PropertyService) Close() error {
	return s.index.Close()
}

// List returns all properties, newest first
func (s *PropertyService) List(ctx context.Context) ([]model.Property, error) {
	return s.store.List(ctx)
}

// Get returns the property with id, or nil, nil
func (s *PropertyService) Get(ctx context.Context, id string) (*model.Property, error) {
	return s.store.Get(ctx, id)
}

// Search returns properties matching query, best match first. An empty
// query lists everything. Rows appended to the store by another writer
// (the import command, another instance on the same database) are indexed
// before the query runs.
func (s *PropertyService) Search(ctx context.Context, query string) ([]model.Property, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return all, nil
	}
	if err := s.syncIndex(all); err != nil {
		return nil, err
	}

	ids, err := s.index.Search(query, defaultSearchLimit)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Property, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	results := make([]model.Property, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			results = append(results, p)
		}
	}
	return results, nil
}

// syncIndex reindexes the store when the index has fallen behind it.
// Properties are never removed, so a count mismatch means missed rows.
func (s *PropertyService) syncIndex(all []model.Property) error {
	n, err := s.index.Count()
	if err != nil {
		return err
	}
	if n == uint64(len(all)) {
		return nil
	}
	s.logger.Info("🔎 Search index behind store, reindexing",
		zap.Uint64("indexed", n), zap.Int("stored", len(all)))
	return s.index.IndexAll(all)
}

// BuildProperty turns a listing form into a property record
func (s *PropertyService) BuildProperty(req model.AddPropertyRequest) (model.Property, error) {
	dto := req.CreatePropertyDTO

	totalShares, err := strconv.Atoi(strings.TrimSpace(dto.TotalShares))
	if err != nil || totalShares <= 0 {
		return model.Property{}, fmt.Errorf("%w: totalShares must be a positive integer", ErrInvalidListing)
	}
	pricePerShare, err := decimal.NewFromString(strings.TrimSpace(dto.PricePerShare))
	if err != nil || pricePerShare.IsNegative() {
		return model.Property{}, fmt.Errorf("%w: pricePerShare must be a non-negative number", ErrInvalidListing)
	}

	total := pricePerShare.Mul(decimal.NewFromInt(int64(totalShares)))

	return model.Property{
		ID:              strings.TrimSpace(req.TokenID),
		Name:            dto.PropertyName,
		Description:     dto.Description,
		Location:        dto.Location,
		ImageURL:        s.gatewayURL + "/" + req.IPFSHash,
		TotalShares:     totalShares,
		Price:           utils.FormatUSD(total),
		Yield:           PlaceholderYield,
		SharesAvailable: totalShares,
	}, nil
}

// Add records a newly minted property and indexes it for search
func (s *PropertyService) Add(ctx context.Context, req model.AddPropertyRequest) (*model.AddPropertyResponse, error) {
	p, err := s.BuildProperty(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, p); err != nil {
		return nil, err
	}

	if err := s.index.Index(p); err != nil {
		s.logger.Warn("failed to index new property", zap.String("id", p.ID), zap.Error(err))
	}
	s.embed(ctx, p)

	s.logger.Info("🏠 Property added", zap.String("id", p.ID), zap.String("name", p.Name), zap.String("price", p.Price))
	return &model.AddPropertyResponse{
		Message:  PropertyAddedMessage,
		Property: p,
	}, nil
}

// embed stores the description embedding when vector search is wired.
// Failures are logged and otherwise ignored.
func (s *PropertyService) embed(ctx context.Context, p model.Property) {
	if s.vectors == nil || s.embedder == nil {
		return
	}
	vectors, err := s.embedder.Embed(ctx, []string{embeddingText(p)})
	if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
		s.logger.Warn("failed to embed property", zap.String("id", p.ID), zap.Error(err))
		return
	}
	if err := s.vectors.SetEmbedding(ctx, p.ID, vectors[0]); err != nil {
		s.logger.Warn("failed to store embedding", zap.String("id", p.ID), zap.Error(err))
	}
}

func embeddingText(p model.Property) string {
	return strings.Join([]string{p.Name, p.Location, p.Description}, "\n")
}

// Upload pins an image to IPFS under the property's name
func (s *PropertyService) Upload(ctx context.Context, propertyName, filename string, file io.Reader) (*model.UploadResponse, error) {
	hash, err := s.pinner.Pin(ctx, filename, propertyName, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image to IPFS: %w", err)
	}
	return &model.UploadResponse{
		Message:  ImageUploadedMessage,
		IPFSHash: hash,
	}, nil
}

// Similar returns properties whose descriptions are closest to id's
func (s *PropertyService) Similar(ctx context.Context, id string, limit int) ([]model.Property, error) {
	if s.vectors == nil || s.embedder == nil {
		return nil, ErrSimilarUnsupported
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	return s.vectors.Similar(ctx, id, limit)
}

// Backfill embeds every property, for stores populated before vector search
// was enabled. Returns the number embedded.
func (s *PropertyService) Backfill(ctx context.Context) (int, error) {
	if s.vectors == nil || s.embedder == nil {
		return 0, ErrSimilarUnsupported
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	texts := make([]string, len(all))
	for i, p := range all {
		texts[i] = embeddingText(p)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed properties: %w", err)
	}

	done := 0
	for i, p := range all {
		if i >= len(vectors) || len(vectors[i]) == 0 {
			continue
		}
		if err := s.vectors.SetEmbedding(ctx, p.ID, vectors[i]); err != nil {
			s.logger.Warn("failed to store embedding", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}
