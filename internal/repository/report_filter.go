package repository

import (
	"time"

	"gorm.io/gorm"
)

// ReportFilter narrows the payments and lookups reports.
type ReportFilter struct {
	ProjectID       int
	From            *time.Time
	To              *time.Time
	InteractionType string
	SortBy          string
	Descending      bool
	// Paginate enables Skip/Limit and the total count.
	Paginate bool
	Skip     int
	Limit    int
}

// findReportPage loads the rows of db's model matching f into dest, with
// their wiretap messages. The total is only counted when f.Paginate is set.
func findReportPage(db *gorm.DB, f ReportFilter, dest interface{}) (int64, error) {
	var total int64

	db = db.Where("project_id = ?", f.ProjectID)
	if f.From != nil && f.To != nil {
		db = db.Where("created_on >= ? AND created_on <= ?", *f.From, *f.To)
	}
	if f.InteractionType != "" {
		db = db.Where("interaction_type = ?", f.InteractionType)
	}

	if f.Paginate {
		if err := db.Count(&total).Error; err != nil {
			return 0, err
		}
		db = db.Offset(f.Skip).Limit(f.Limit)
	}

	order := f.SortBy + " ASC"
	if f.Descending {
		order = f.SortBy + " DESC"
	}
	if err := db.Preload("Message").Order(order).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
