package notion

import (
	"time"

	"github.com/jomei/notionapi"
	"github.com/secmon-lab/gathsalt/pkg/domain/model"
)

func buildPageRequest(dbID string, insight *model.Insight) *notionapi.PageCreateRequest {
	captured := notionapi.Date(insight.Timestamp.UTC().Truncate(time.Second))

	props := notionapi.Properties{
		PropertyName: notionapi.TitleProperty{
			Title: richText(insight.Summary),
		},
		PropertyPlatform: notionapi.SelectProperty{
			Select: notionapi.Option{Name: insight.Platform.String()},
		},
		PropertySentiment: notionapi.SelectProperty{
			Select: notionapi.Option{Name: insight.Sentiment.String()},
		},
		PropertyCaptured: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &captured},
		},
	}
	if insight.SourceURL != "" {
		props[PropertySource] = notionapi.URLProperty{URL: insight.SourceURL}
	}

	children := []notionapi.Block{
		&notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeParagraph},
			Paragraph:  notionapi.Paragraph{RichText: richText(insight.Explanation)},
		},
	}

	if len(insight.KeyTakeaways) > 0 {
		children = append(children, &notionapi.Heading2Block{
			BasicBlock: notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeHeading2},
			Heading2:   notionapi.Heading{RichText: richText("Key takeaways")},
		})
		for _, takeaway := range insight.KeyTakeaways {
			children = append(children, &notionapi.BulletedListItemBlock{
				BasicBlock:       notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: notionapi.BlockTypeBulletedListItem},
				BulletedListItem: notionapi.ListItem{RichText: richText(takeaway)},
			})
		}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
		Children:   children,
	}
}

// richText splits s into rich text objects within the per-object length limit
func richText(s string) []notionapi.RichText {
	runes := []rune(s)
	var result []notionapi.RichText
	for len(runes) > 0 {
		n := min(len(runes), maxRichTextLength)
		result = append(result, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: string(runes[:n])},
		})
		runes = runes[n:]
	}
	return result
}
