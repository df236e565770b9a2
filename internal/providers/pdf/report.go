package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReport(ctx context.Context, data ReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Analysis Report", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(18,
		col.New(6).Add(
			text.New(data.DomainURL, props.Text{Size: 12, Style: fontstyle.Bold}),
			text.New("Report: "+data.ReportID, props.Text{Top: 6, Size: 8}),
			text.New("Generated: "+data.GeneratedAt, props.Text{Top: 10, Size: 8}),
		),
		col.New(6),
	)

	// Scores
	m.AddRow(10,
		text.NewCol(4, "SEO score", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "AEO score", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Overall", props.Text{Style: fontstyle.Bold, Size: 9}),
	)
	m.AddRow(12,
		text.NewCol(4, fmt.Sprintf("%.1f", data.SEOScore), props.Text{Size: 16}),
		text.NewCol(4, fmt.Sprintf("%.1f", data.AEOScore), props.Text{Size: 16}),
		text.NewCol(4, fmt.Sprintf("%.1f", data.OverallScore), props.Text{Size: 16, Style: fontstyle.Bold}),
	)

	if data.Summary != "" {
		m.AddRow(8,
			text.NewCol(12, "Summary", props.Text{Style: fontstyle.Bold, Size: 11}),
		)
		m.AddRow(24,
			text.NewCol(12, data.Summary, props.Text{Size: 9}),
		)
	}

	if len(data.Recommendations) > 0 {
		m.AddRow(8,
			text.NewCol(12, "Recommendations", props.Text{Style: fontstyle.Bold, Size: 11}),
		)
		m.AddRow(8,
			text.NewCol(3, "Category", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Priority", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Impact", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, rec := range data.Recommendations {
			m.AddRow(14,
				text.NewCol(3, rec.Category, props.Text{Size: 9}),
				text.NewCol(2, rec.Priority, props.Text{Size: 9}),
				text.NewCol(5, rec.Description, props.Text{Size: 9}),
				text.NewCol(2, rec.Impact, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
