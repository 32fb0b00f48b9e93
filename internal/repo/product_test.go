package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/testutil"
)

func TestSearchProducts_WildcardsMatchLiterally(t *testing.T) {
	db := testutil.InitTestDB(t)
	r := New(db)
	ctx := context.Background()

	testutil.SeedProduct(t, db, "100% Cotton Tee", 20, 3)
	testutil.SeedProduct(t, db, "Wool Hat", 15, 3)

	cases := []struct {
		keyword string
		want    int64
	}{
		{"%", 1},
		{"0% c", 1},
		{"_", 0},
		{`\`, 0},
		{"hat", 1},
		{"NIKE", 2},
	}
	for _, tc := range cases {
		t.Run(tc.keyword, func(t *testing.T) {
			total, items, err := r.SearchProducts(ctx, tc.keyword, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tc.want, total)
			assert.Len(t, items, int(tc.want))
		})
	}
}
