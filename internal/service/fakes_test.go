package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"aira/internal/model"
	"aira/internal/repository"

	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	messages []ChatMessage
}

func (f *fakeLLM) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	return f.reply, f.err
}

func (f *fakeLLM) IsEnabled() bool { return f.err == nil }

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type fakeVectors struct {
	mu         sync.Mutex
	embeddings map[string][]float32
	similar    []model.Property
}

func (f *fakeVectors) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embeddings == nil {
		f.embeddings = map[string][]float32{}
	}
	f.embeddings[id] = embedding
	return nil
}

func (f *fakeVectors) Similar(ctx context.Context, id string, limit int) ([]model.Property, error) {
	if len(f.similar) > limit {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

type fakePinner struct {
	hash     string
	err      error
	filename string
	name     string
	body     []byte
}

func (f *fakePinner) Pin(ctx context.Context, filename, name string, file io.Reader) (string, error) {
	f.filename = filename
	f.name = name
	f.body, _ = io.ReadAll(file)
	return f.hash, f.err
}

type failingStore struct{}

func (failingStore) List(ctx context.Context) ([]model.Property, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Get(ctx context.Context, id string) (*model.Property, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Append(ctx context.Context, p model.Property) error {
	return errors.New("disk on fire")
}

func newTestStore(t *testing.T, properties ...model.Property) *repository.FileStore {
	t.Helper()
	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "properties.json"))
	require.NoError(t, err)
	// Append prepends, so insert oldest first
	for i := len(properties) - 1; i >= 0; i-- {
		require.NoError(t, store.Append(context.Background(), properties[i]))
	}
	return store
}

func testProperty(id, name, location, price string, shares int) model.Property {
	return model.Property{
		ID:              id,
		Name:            name,
		Description:     "A " + name + " with great potential",
		Location:        location,
		ImageURL:        "https://gateway.pinata.cloud/ipfs/Qm" + id,
		TotalShares:     shares,
		Price:           price,
		Yield:           "5.0%",
		SharesAvailable: shares,
	}
}
