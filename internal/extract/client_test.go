package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/llm"
)

type fakeSource struct {
	data    []byte
	readErr error
	noURL   bool
	reads   int
}

func (s *fakeSource) Read(ctx context.Context, locator string) ([]byte, error) {
	s.reads++
	return s.data, s.readErr
}

func (s *fakeSource) DisplayURL(img entity.Image) (string, bool) {
	if s.noURL {
		return "", false
	}
	return "https://img.example/" + img.StorageLocator, true
}

type fakeProvider struct {
	out   string
	err   error
	calls int
	last  llm.VisionRequest
}

func (p *fakeProvider) Generate(ctx context.Context, req llm.VisionRequest) (string, error) {
	p.calls++
	p.last = req
	return p.out, p.err
}

func (p *fakeProvider) Name() string { return "fake" }

func testImage(mime string) entity.Image {
	return entity.Image{ID: uuid.New(), UploaderID: uuid.New(), StorageLocator: "r.jpg", MimeType: mime}
}

const validResponse = "```json\n" + `{
  "sale_date": "10/03/2024 - 14:22",
  "items": [
    {"item_code": "001", "barcode": "7891000100103", "name": "LEITE", "quantity": 1.000,
     "unit_of_measure": "UN", "unit_price": 4.99, "total_price": 4.99, "discount": 0},
    {"item_code": "002", "barcode": null, "name": "PAO FRANCES", "quantity": "0,734",
     "unit_of_measure": "KG", "unit_price": "15,90", "total_price": 11.67}
  ]
}` + "\n```"

func TestExtract_Success(t *testing.T) {
	src := &fakeSource{data: []byte{0xff, 0xd8, 0xff}}
	prov := &fakeProvider{out: validResponse}
	c := NewClient(src, prov, Config{Timeout: time.Second}, nil)

	sale, err := c.Extract(context.Background(), testImage("image/JPEG"))
	require.NoError(t, err)

	assert.Equal(t, "10/03/2024 - 14:22", sale.SaleDateRaw)
	require.Len(t, sale.Items, 2)

	first := sale.Items[0]
	assert.Equal(t, "001", first.ItemCode)
	assert.Equal(t, "7891000100103", first.Barcode)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, first.ExtractedTotal.Equal(first.TotalPrice))

	second := sale.Items[1]
	assert.Empty(t, second.Barcode)
	assert.Equal(t, "0.734", second.Quantity.String())
	assert.Equal(t, "15.9", second.UnitPrice.String())
	assert.True(t, second.Discount.IsZero())

	assert.Equal(t, "image/jpeg", prov.last.MimeType)
	assert.Equal(t, float32(0), prov.last.Temperature)
	assert.Equal(t, "application/json", prov.last.ResponseMIMEType)
	assert.NotEmpty(t, prov.last.Instructions)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name      string
		src       *fakeSource
		prov      *fakeProvider
		mime      string
		wantKind  constants.FailureKind
		wantCalls int
	}{
		{
			name:     "no display url",
			src:      &fakeSource{noURL: true, data: []byte("x")},
			prov:     &fakeProvider{out: validResponse},
			mime:     "image/png",
			wantKind: constants.FailureNoAccessibleImage,
		},
		{
			name:     "unsupported mime",
			src:      &fakeSource{data: []byte("x")},
			prov:     &fakeProvider{out: validResponse},
			mime:     "application/pdf",
			wantKind: constants.FailureUnsupportedMimeType,
		},
		{
			name:     "read error",
			src:      &fakeSource{readErr: errors.New("disk gone")},
			prov:     &fakeProvider{out: validResponse},
			mime:     "image/png",
			wantKind: constants.FailureNoAccessibleImage,
		},
		{
			name:      "provider error",
			src:       &fakeSource{data: []byte("x")},
			prov:      &fakeProvider{err: errors.New("quota exceeded")},
			mime:      "image/png",
			wantKind:  constants.FailureProviderError,
			wantCalls: 1,
		},
		{
			name:      "not json",
			src:       &fakeSource{data: []byte("x")},
			prov:      &fakeProvider{out: "I could not read this receipt."},
			mime:      "image/png",
			wantKind:  constants.FailureMalformedResponse,
			wantCalls: 1,
		},
		{
			name:      "missing items",
			src:       &fakeSource{data: []byte("x")},
			prov:      &fakeProvider{out: `{"sale_date":"10/03/2024 - 14:22"}`},
			mime:      "image/png",
			wantKind:  constants.FailureMalformedResponse,
			wantCalls: 1,
		},
		{
			name:      "missing sale date",
			src:       &fakeSource{data: []byte("x")},
			prov:      &fakeProvider{out: `{"items":[]}`},
			mime:      "image/png",
			wantKind:  constants.FailureMalformedResponse,
			wantCalls: 1,
		},
		{
			name:      "wrong item types",
			src:       &fakeSource{data: []byte("x")},
			prov:      &fakeProvider{out: `{"sale_date":"x","items":[{"item_code":"1","name":"a","quantity":"lots","unit_price":1,"total_price":1}]}`},
			mime:      "image/png",
			wantKind:  constants.FailureMalformedResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.src, tt.prov, Config{}, nil)
			sale, err := c.Extract(context.Background(), testImage(tt.mime))
			require.Error(t, err)
			assert.Nil(t, sale)

			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantCalls, tt.prov.calls)
		})
	}
}

func TestExtract_UnsupportedMimeSkipsRead(t *testing.T) {
	src := &fakeSource{data: []byte("x")}
	c := NewClient(src, &fakeProvider{out: validResponse}, Config{}, nil)
	_, err := c.Extract(context.Background(), testImage("image/gif"))
	require.Error(t, err)
	assert.Equal(t, 0, src.reads)
}

func TestExtract_ProviderErrorKeepsCause(t *testing.T) {
	cause := errors.New("deadline")
	c := NewClient(&fakeSource{data: []byte("x")}, &fakeProvider{err: cause}, Config{}, nil)
	_, err := c.Extract(context.Background(), testImage("image/webp"))
	assert.ErrorIs(t, err, cause)
}

func TestParseSaleDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"10/03/2024 - 14:22", time.Date(2024, 3, 10, 14, 22, 0, 0, time.UTC), false},
		{"1/2/2024 - 9:05", time.Date(2024, 2, 1, 9, 5, 0, 0, time.UTC), false},
		{"10/03/2024  -  14:22", time.Date(2024, 3, 10, 14, 22, 0, 0, time.UTC), false},
		{"10/03/2024", time.Time{}, true},
		{"10/03/2024 14:22", time.Time{}, true},
		{"10/03/2024 - 14:22:05", time.Time{}, true},
		{"2024-03-10", time.Time{}, true},
		{"31/02/2024 - 10:00", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSaleDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}
