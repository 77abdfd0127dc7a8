package crud

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type note struct {
	ID     int64 `gorm:"primaryKey"`
	Body   string
	Weight float64
	Pinned bool
	Stars  *int
}

type keyless struct {
	Body string
}

func TestNewBase(t *testing.T) {
	db := setupTestDB(t)

	base, err := NewBase[note](db, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "notes", base.Table())

	_, err = NewBase[keyless](db, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestBase_GenericModel(t *testing.T) {
	db := setupTestDB(t)
	base, err := NewBase[note](db, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, base.Migrate(ctx))

	n, err := base.Create(ctx, &note{Body: "hello", Weight: 1.5})
	require.NoError(t, err)
	require.NotZero(t, n.ID)

	updated, err := base.Update(ctx, n.ID, map[string]any{"pinned": true, "weight": 2, "stars": float64(3)})
	require.NoError(t, err)
	assert.True(t, updated.Pinned)
	assert.Equal(t, 2.0, updated.Weight)
	require.NotNil(t, updated.Stars)
	assert.Equal(t, 3, *updated.Stars)
	assert.Equal(t, "hello", updated.Body)

	cleared, err := base.Update(ctx, n.ID, map[string]any{"stars": nil})
	require.NoError(t, err)
	assert.Nil(t, cleared.Stars)

	_, err = base.Create(ctx, nil)
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	intType := reflect.TypeOf(0)
	strType := reflect.TypeOf("")

	tests := []struct {
		name    string
		t       reflect.Type
		value   any
		want    any
		wantErr bool
	}{
		{name: "int to int", t: intType, value: 5, want: 5},
		{name: "int64 to int", t: intType, value: int64(5), want: 5},
		{name: "integral float to int", t: intType, value: 31.0, want: 31},
		{name: "fractional float to int", t: intType, value: 31.5, wantErr: true},
		{name: "string to int", t: intType, value: "31", wantErr: true},
		{name: "nil to int", t: intType, value: nil, want: 0},
		{name: "string to string", t: strType, value: "x", want: "x"},
		{name: "int to string", t: strType, value: 42, wantErr: true},
		{name: "negative to uint", t: reflect.TypeOf(uint(0)), value: -1, wantErr: true},
		{name: "overflow int8", t: reflect.TypeOf(int8(0)), value: 300, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convert(tt.t, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Interface())
		})
	}
}
