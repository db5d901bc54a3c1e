// Package export renders link statistics as an xlsx workbook.
package export

import (
	"fmt"
	"invitebot/entity"
	"invitebot/lib/clock"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName  = "Links Stat"
	OwnFile    = "links_stat.xlsx"
	TotalFile  = "Total_links_stat.xlsx"
	MimeType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	widthSlack = 2
)

var (
	baseHeaders  = []string{"Link", "Title", "Used", "Approved requests", "Visits total", "Created", "Last synced"}
	ownerHeaders = []string{"Owner (tg_id)", "Username", "First name"}
)

type File struct {
	Name string
	Data []byte
}

// Build renders links into a workbook. With owners set the owner columns come
// first and rows are grouped by owner, links without an owner last.
func Build(links []entity.InviteLink, owners bool) (*File, error) {
	rows := entity.ExportRows(links)
	name := OwnFile
	headers := baseHeaders
	if owners {
		SortByOwner(rows)
		name = TotalFile
		headers = append(append([]string{}, ownerHeaders...), baseHeaders...)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	widths := make([]int, len(headers))
	table := make([][]interface{}, 0, len(rows)+1)
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	table = append(table, header)
	for _, row := range rows {
		table = append(table, cells(row, owners))
	}

	for i, values := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err = f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
		for j, v := range values {
			widths[j] = max(widths[j], utf8.RuneCountInString(fmt.Sprint(v)))
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err = f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err = f.SetColWidth(sheetName, col, col, float64(w+widthSlack)); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &File{Name: name, Data: buf.Bytes()}, nil
}

func cells(row entity.ExportRow, owners bool) []interface{} {
	base := []interface{}{
		row.Link,
		row.Title,
		row.UsageCount,
		row.ApprovedRequestCount,
		row.VisitsTotal,
		clock.Local(row.CreatedAt),
		clock.Local(row.LastSyncedAt),
	}
	if !owners {
		return base
	}
	owner := ""
	if row.OwnerId != nil {
		owner = strconv.FormatInt(*row.OwnerId, 10)
	}
	return append([]interface{}{owner, row.OwnerUsername, row.OwnerFirstName}, base...)
}

// SortByOwner orders rows by owner id with ownerless rows last, then by title ignoring case.
func SortByOwner(rows []entity.ExportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if (a.OwnerId == nil) != (b.OwnerId == nil) {
			return b.OwnerId == nil
		}
		if a.OwnerId != nil && *a.OwnerId != *b.OwnerId {
			return *a.OwnerId < *b.OwnerId
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
