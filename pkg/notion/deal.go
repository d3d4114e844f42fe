package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Deal is the slice of an analysis published to the deal tracker.
type Deal struct {
	Company        string
	Sector         string
	Stage          string
	Score          float64
	Recommendation string
	RiskLevel      string
	Horizon        string
	Thesis         string
}

// UpsertDeal creates the deal page if the company is new, or updates the
// existing page. Returns the page ID.
func UpsertDeal(ctx context.Context, c Client, dbID string, deal Deal) (string, error) {
	props := dealProperties(deal)

	existing, err := FindDealByName(ctx, c, dbID, deal.Company)
	if err != nil {
		return "", err
	}

	if existing != nil {
		page, err := c.UpdatePage(ctx, existing.ID.String(), &notionapi.PageUpdateRequest{
			Properties: props,
		})
		if err != nil {
			return "", eris.Wrap(err, fmt.Sprintf("notion: update deal %s", deal.Company))
		}
		return page.ID.String(), nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("notion: create deal %s", deal.Company))
	}
	return page.ID.String(), nil
}

func dealProperties(deal Deal) notionapi.Properties {
	props := notionapi.Properties{
		"Company": notionapi.TitleProperty{
			Type: notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{
				{Text: &notionapi.Text{Content: deal.Company}},
			},
		},
		"Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: deal.Score,
		},
	}

	if deal.Sector != "" {
		props["Sector"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: deal.Sector},
		}
	}
	if deal.Stage != "" {
		props["Stage"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: deal.Stage},
		}
	}
	if deal.Recommendation != "" {
		props["Recommendation"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: deal.Recommendation},
		}
	}
	if deal.RiskLevel != "" {
		props["Risk"] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: deal.RiskLevel},
		}
	}
	if deal.Horizon != "" {
		props["Horizon"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: deal.Horizon}},
			},
		}
	}
	if deal.Thesis != "" {
		props["Thesis"] = notionapi.RichTextProperty{
			Type: notionapi.PropertyTypeRichText,
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: deal.Thesis}},
			},
		}
	}
	return props
}
