package entity

import "time"

// ExportRow is one spreadsheet line of the statistics export.
type ExportRow struct {
	Link                 string
	Title                string
	UsageCount           int
	ApprovedRequestCount int
	VisitsTotal          int
	CreatedAt            time.Time
	LastSyncedAt         time.Time
	OwnerId              *int64
	OwnerUsername        string
	OwnerFirstName       string
}

// ExportRows flattens stored links into export rows.
func ExportRows(links []InviteLink) []ExportRow {
	rows := make([]ExportRow, 0, len(links))
	for i := range links {
		l := &links[i]
		rows = append(rows, ExportRow{
			Link:                 l.Link,
			Title:                l.Title,
			UsageCount:           l.UsageCount,
			ApprovedRequestCount: l.ApprovedRequestCount,
			VisitsTotal:          l.VisitsTotal(),
			CreatedAt:            l.CreatedAt,
			LastSyncedAt:         l.LastSyncedAt,
			OwnerId:              l.OwnerId,
			OwnerUsername:        l.OwnerUsername,
			OwnerFirstName:       l.OwnerFirstName,
		})
	}
	return rows
}
