// Package report exports solver results as Excel workbooks and PDF
// documents.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"vrpdfd/pkg/domain"
	"vrpdfd/pkg/flow"
	"vrpdfd/pkg/tsp"
)

// Имена листов
const (
	SheetSummary = "Summary"
	SheetEdges   = "Edges"
	SheetMatrix  = "Flow Matrix"
	SheetPaths   = "Paths"
	SheetTour    = "Tour"
)

// FlowReport данные для отчёта по потоку
type FlowReport struct {
	Title     string
	Operation string
	Network   *flow.Network
	Result    *flow.Result
	// Labels подписи узлов; пустые берутся как номера
	Labels []string
	// Feasible выводится только для задач с нижними границами
	Feasible *bool
}

func (r FlowReport) label(i int) string {
	if i < len(r.Labels) && r.Labels[i] != "" {
		return r.Labels[i]
	}
	return fmt.Sprint(i)
}

func (r FlowReport) pathString(nodes []int) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = r.label(n)
	}
	return strings.Join(parts, " -> ")
}

func (r FlowReport) check() error {
	if r.Network == nil || r.Result == nil {
		return fmt.Errorf("report: network and result are required")
	}
	return nil
}

// TourReport данные для отчёта по маршруту
type TourReport struct {
	Title     string
	Cities    []domain.Point
	Result    *tsp.Result
	Precision int
}

// WriteFlowWorkbook пишет xlsx с листами Summary, Edges, Flow Matrix и Paths
func WriteFlowWorkbook(w io.Writer, r FlowReport) error {
	if err := r.check(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	// Дефолтный лист становится сводкой
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	net, res := r.Network, r.Result
	label := r.label

	// Сводка
	summary := [][]any{
		{"Report", titleOr(r.Title, "Flow Report")},
		{"Operation", r.Operation},
		{"Nodes", net.Size},
		{"Edges", net.EdgeCount()},
		{"Source", label(net.Source)},
		{"Sink", label(net.Sink)},
		{"Value", res.Value},
		{"Augmentations", res.Augmentations},
	}
	if r.Feasible != nil {
		summary = append(summary, []any{"Feasible", *r.Feasible})
	}
	if err := writeRows(f, SheetSummary, 1, summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", cell(1, len(summary)), header); err != nil {
		return err
	}

	// Рёбра с ненулевым потоком
	if _, err := f.NewSheet(SheetEdges); err != nil {
		return err
	}
	edgeRows := [][]any{{"From", "To", "Flow", "Capacity", "Utilization"}}
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
			edgeRows = append(edgeRows, []any{label(i), label(j), v, capacity, utilization})
		}
	}
	if err := writeRows(f, SheetEdges, 1, edgeRows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetEdges, "A1", "E1", header); err != nil {
		return err
	}

	// Матрица потока: пустые клетки для нулей
	if _, err := f.NewSheet(SheetMatrix); err != nil {
		return err
	}
	for i := 0; i < net.Size; i++ {
		if err := f.SetCellValue(SheetMatrix, cell(i+2, 1), label(i)); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetMatrix, cell(1, i+2), label(i)); err != nil {
			return err
		}
		for j, v := range res.Flow[i] {
			if domain.IsPositive(v) {
				if err := f.SetCellValue(SheetMatrix, cell(j+2, i+2), v); err != nil {
					return err
				}
			}
		}
	}

	// Разложение на пути
	if _, err := f.NewSheet(SheetPaths); err != nil {
		return err
	}
	pathRows := [][]any{{"#", "Flow", "Path"}}
	for k, p := range flow.Decompose(res.Flow, net.Source, net.Sink) {
		pathRows = append(pathRows, []any{k + 1, p.Flow, r.pathString(p.Nodes)})
	}
	if err := writeRows(f, SheetPaths, 1, pathRows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetPaths, "A1", "C1", header); err != nil {
		return err
	}

	return f.Write(w)
}

// WriteTourWorkbook пишет xlsx с маршрутом: позиции, координаты, длины звеньев.
// Тур может обходить часть городов (маршрут по подмножеству клиентов).
func WriteTourWorkbook(w io.Writer, r TourReport) error {
	if err := r.check(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTour); err != nil {
		return err
	}
	header, err := headerStyle(f)
	if err != nil {
		return err
	}

	rows := [][]any{{"Position", "City", "X", "Y", "Leg"}}
	legs := tsp.Legs(r.Cities, r.Result.Tour, r.Precision)
	for pos, city := range r.Result.Tour {
		p := r.Cities[city]
		rows = append(rows, []any{pos, city, p.X, p.Y, legs[pos]})
	}
	if err := writeRows(f, SheetTour, 1, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetTour, "A1", "E1", header); err != nil {
		return err
	}

	// Итог под таблицей
	total := len(rows) + 2
	footer := [][]any{
		{"Report", titleOr(r.Title, "Tour Report")},
		{"Method", string(r.Result.Method)},
		{"Length", r.Result.Length},
	}
	if err := writeRows(f, SheetTour, total, footer); err != nil {
		return err
	}

	return f.Write(w)
}

func (r TourReport) check() error {
	if r.Result == nil || len(r.Result.Tour) == 0 {
		return fmt.Errorf("report: empty tour")
	}
	for _, city := range r.Result.Tour {
		if city < 0 || city >= len(r.Cities) {
			return fmt.Errorf("report: tour city %d out of range", city)
		}
	}
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

// writeRows пишет строки начиная с firstRow, столбцы с A
func writeRows(f *excelize.File, sheet string, firstRow int, rows [][]any) error {
	for i, row := range rows {
		addr := cell(1, firstRow+i)
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return err
		}
	}
	return nil
}

// cell переводит 1-based столбец и строку в адрес вида "B3"
func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return name
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}
