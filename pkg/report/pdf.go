package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/flow"
	"vrpdfd/pkg/tsp"
)

// pdfMaxRows ограничивает длину таблиц в PDF; полные данные есть в xlsx
const pdfMaxRows = 40

// Стили
var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// WriteFlowPDF пишет PDF со сводкой, загрузкой рёбер, узкими местами и
// разложением потока на пути
func WriteFlowPDF(w io.Writer, r FlowReport) error {
	if err := r.check(); err != nil {
		return err
	}
	net, res := r.Network, r.Result

	m := newDocument()
	addTitle(m, titleOr(r.Title, "Flow Report"), r.Operation)

	addSection(m, "Result")
	cards := []metricCard{
		{Label: "Value", Value: formatFloat(res.Value), Highlight: true},
		{Label: "Volume", Value: formatFloat(res.Volume(net.Source))},
		{Label: "Augmentations", Value: strconv.Itoa(res.Augmentations)},
	}
	if r.Feasible != nil {
		cards = append(cards, metricCard{Label: "Feasible", Value: strconv.FormatBool(*r.Feasible)})
	}
	addMetricCards(m, cards)

	stats := flow.Stats(net, res)
	addSection(m, "Network")
	addMetricCards(m, []metricCard{
		{Label: "Nodes", Value: strconv.Itoa(net.Size)},
		{Label: "Edges", Value: strconv.Itoa(stats.Edges)},
		{Label: "Saturated", Value: strconv.Itoa(stats.SaturatedEdges)},
		{Label: "Utilization", Value: formatPercent(stats.AverageUtilization)},
		{Label: "Grade", Value: string(stats.Grade)},
	})

	addSection(m, "Edge Flows")
	rows := make([][]string, 0)
	for i := range res.Flow {
		for j, v := range res.Flow[i] {
			if !domain.IsPositive(v) {
				continue
			}
			capacity := net.Capacities[i][j]
			utilization := 0.0
			if capacity > 0 {
				utilization = v / capacity
			}
			rows = append(rows, []string{r.label(i), r.label(j), formatFloat(v), formatFloat(capacity), formatPercent(utilization)})
		}
	}
	addTable(m, []string{"From", "To", "Flow", "Capacity", "Utilization"}, rows)

	if bottlenecks := flow.Bottlenecks(net, res, flow.HighUtilizationThreshold); len(bottlenecks) > 0 {
		addSection(m, "Bottlenecks")
		for _, b := range bottlenecks {
			color := successColor
			if b.Severity == flow.SeverityCritical || b.Severity == flow.SeverityHigh {
				color = dangerColor
			}
			m.AddRow(6,
				text.NewCol(4, r.label(b.From)+" -> "+r.label(b.To), tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(3, formatPercent(b.Utilization), tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(3, formatPercent(b.Impact), tableCellTextStyle).WithStyle(tableCellStyle),
				text.NewCol(2, b.Severity.String(), props.Text{Size: 9, Align: align.Center, Style: fontstyle.Bold, Color: color}).
					WithStyle(tableCellStyle),
			)
		}
	}

	addSection(m, "Paths")
	rows = rows[:0]
	for k, p := range flow.Decompose(res.Flow, net.Source, net.Sink) {
		rows = append(rows, []string{strconv.Itoa(k + 1), formatFloat(p.Flow), r.pathString(p.Nodes)})
	}
	addTable(m, []string{"#", "Flow", "Path"}, rows)

	return writeDocument(w, m)
}

// WriteTourPDF пишет PDF с маршрутом и длинами звеньев
func WriteTourPDF(w io.Writer, r TourReport) error {
	if err := r.check(); err != nil {
		return err
	}

	m := newDocument()
	addTitle(m, titleOr(r.Title, "Tour Report"), string(r.Result.Method))

	addSection(m, "Result")
	addMetricCards(m, []metricCard{
		{Label: "Length", Value: formatFloat(r.Result.Length), Highlight: true},
		{Label: "Stops", Value: strconv.Itoa(len(r.Result.Tour))},
		{Label: "Method", Value: string(r.Result.Method)},
	})

	addSection(m, "Tour")
	legs := tsp.Legs(r.Cities, r.Result.Tour, r.Precision)
	rows := make([][]string, 0, len(r.Result.Tour))
	for pos, city := range r.Result.Tour {
		p := r.Cities[city]
		rows = append(rows, []string{strconv.Itoa(pos), strconv.Itoa(city), formatFloat(p.X), formatFloat(p.Y), formatFloat(legs[pos])})
	}
	addTable(m, []string{"Position", "City", "X", "Y", "Leg"}, rows)

	return writeDocument(w, m)
}

// =============================================================================
// Layout helpers
// =============================================================================

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	return maroto.New(cfg)
}

func writeDocument(w io.Writer, m core.Maroto) error {
	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("report: generate pdf: %w", err)
	}
	_, err = w.Write(doc.GetBytes())
	return err
}

func addTitle(m core.Maroto, title, subtitle string) {
	m.AddRow(12,
		text.NewCol(12, title, titleStyle),
	)
	m.AddRow(5,
		line.NewCol(12),
	)
	if subtitle != "" {
		m.AddRow(6,
			text.NewCol(12, subtitle, props.Text{Size: 9, Color: darkGrayColor, Align: align.Center}),
		)
	}
	m.AddRow(6)
}

func addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(4)
}

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := max(12/len(cards), 2)
	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 12
		}
		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}
	m.AddRow(18, cols...)
}

// addTable делит 12 колонок сетки поровну, остаток отдаёт последнему столбцу
func addTable(m core.Maroto, header []string, rows [][]string) {
	size := 12 / len(header)
	sizeOf := func(i int) int {
		if i == len(header)-1 {
			return 12 - size*(len(header)-1)
		}
		return size
	}

	headerCols := make([]core.Col, len(header))
	for i, h := range header {
		headerCols[i] = text.NewCol(sizeOf(i), h, tableHeaderTextStyle).WithStyle(tableHeaderStyle)
	}
	m.AddRow(8, headerCols...)

	for k, row := range rows {
		if k == pdfMaxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more rows", len(rows)-pdfMaxRows), smallStyle),
			)
			break
		}
		cols := make([]core.Col, len(row))
		for i, v := range row {
			cols[i] = text.NewCol(sizeOf(i), v, tableCellTextStyle).WithStyle(tableCellStyle)
		}
		m.AddRow(6, cols...)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
