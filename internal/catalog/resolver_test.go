package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

type memStore struct {
	byBarcode map[string]*entity.Product
	err       error
	calls     int
}

func (s *memStore) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.byBarcode[barcode]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

type fakeLookup struct {
	store *memStore
	err   error
	calls int
	// create controls whether a lookup adds the product to the store.
	create bool
}

func (l *fakeLookup) FindOrFetchByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	p := &entity.Product{ID: uuid.New(), Barcode: barcode, Name: "Imported"}
	if l.create {
		l.store.byBarcode[barcode] = p
	}
	return p, nil
}

func TestResolver(t *testing.T) {
	known := &entity.Product{ID: uuid.New(), Barcode: "111", Name: "Known"}

	tests := []struct {
		name        string
		barcode     string
		storeErr    error
		lookupErr   error
		create      bool
		wantName    string
		wantLookups int
	}{
		{name: "empty barcode", barcode: "", wantLookups: 0},
		{name: "store hit", barcode: "111", wantName: "Known", wantLookups: 0},
		{name: "miss then import", barcode: "222", create: true, wantName: "Imported", wantLookups: 1},
		{name: "lookup error", barcode: "222", lookupErr: errors.New("catalog down"), wantLookups: 1},
		{name: "lookup ok but not stored", barcode: "222", create: false, wantLookups: 1},
		{name: "store error", barcode: "111", storeErr: errors.New("db gone"), wantLookups: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{byBarcode: map[string]*entity.Product{"111": known}, err: tt.storeErr}
			lookup := &fakeLookup{store: store, err: tt.lookupErr, create: tt.create}
			r := NewResolver(store, lookup, nil)

			got := r.Resolve(context.Background(), &entity.ExtractedItem{ItemCode: "001", Barcode: tt.barcode})
			if tt.wantName == "" {
				assert.Nil(t, got)
			} else if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantName, got.Name)
				assert.Equal(t, tt.barcode, got.Barcode)
			}
			assert.Equal(t, tt.wantLookups, lookup.calls)
		})
	}
}

func TestResolver_NilItem(t *testing.T) {
	r := NewResolver(&memStore{}, nil, nil)
	assert.Nil(t, r.Resolve(context.Background(), nil))
}
