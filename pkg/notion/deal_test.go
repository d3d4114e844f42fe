package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpsertDeal_CreatesWhenMissing(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-deals", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{Results: []notionapi.Page{}}, nil).Once()

	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		if req.Parent.DatabaseID != notionapi.DatabaseID("db-deals") {
			return false
		}
		tp, ok := req.Properties["Company"].(notionapi.TitleProperty)
		return ok && tp.Title[0].Text.Content == "Acme"
	})).Return(&notionapi.Page{ID: "new-page"}, nil).Once()

	id, err := UpsertDeal(ctx, mc, "db-deals", Deal{
		Company:        "Acme",
		Score:          7.5,
		Recommendation: "BUY",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-page", id)
	mc.AssertExpectations(t)
}

func TestUpsertDeal_UpdatesExisting(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-deals", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{{ID: "deal-1"}},
		}, nil).Once()

	mc.On("UpdatePage", ctx, "deal-1", mock.MatchedBy(func(req *notionapi.PageUpdateRequest) bool {
		np, ok := req.Properties["Score"].(notionapi.NumberProperty)
		return ok && np.Number == 8.2
	})).Return(&notionapi.Page{ID: "deal-1"}, nil).Once()

	id, err := UpsertDeal(ctx, mc, "db-deals", Deal{Company: "Acme", Score: 8.2})
	require.NoError(t, err)
	assert.Equal(t, "deal-1", id)
	mc.AssertExpectations(t)
}

func TestUpsertDeal_LookupError(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-deals", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(nil, assert.AnError).Once()

	_, err := UpsertDeal(ctx, mc, "db-deals", Deal{Company: "Acme"})
	require.Error(t, err)
	mc.AssertExpectations(t)
}

func TestDealProperties_OptionalFields(t *testing.T) {
	props := dealProperties(Deal{Company: "Acme", Score: 6.0})
	assert.Contains(t, props, "Company")
	assert.Contains(t, props, "Score")
	assert.NotContains(t, props, "Recommendation")
	assert.NotContains(t, props, "Risk")
	assert.NotContains(t, props, "Thesis")

	full := dealProperties(Deal{
		Company:        "Acme",
		Sector:         "saas",
		Stage:          "series_a",
		Score:          7.5,
		Recommendation: "BUY",
		RiskLevel:      "Medium",
		Horizon:        "24-36 months",
		Thesis:         "Strong growth at efficient burn.",
	})
	assert.Contains(t, full, "Recommendation")
	assert.Contains(t, full, "Risk")
	assert.Contains(t, full, "Horizon")
	assert.Contains(t, full, "Thesis")

	sp, ok := full["Recommendation"].(notionapi.SelectProperty)
	require.True(t, ok)
	assert.Equal(t, "BUY", sp.Select.Name)
}
