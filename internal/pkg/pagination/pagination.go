// Package pagination reads page/size query parameters and applies them to
// gorm queries.
package pagination

import (
	"strconv"

	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	DefaultPage = 1
	DefaultSize = 20
	MaxSize     = 100
)

type Query struct {
	Page int
	Size int
}

// Offset is the number of rows before the requested page.
func (q Query) Offset() int { return (q.Page - 1) * q.Size }

// Normalize clamps page to at least 1 and size into [1, MaxSize].
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.Size < 1:
		q.Size = DefaultSize
	case q.Size > MaxSize:
		q.Size = MaxSize
	}
	return q
}

// FromContext reads ?page= and ?size=. Unparsable values fall back to defaults.
func FromContext(c *gin.Context) Query {
	return Query{
		Page: atoiOr(c.Query("page"), DefaultPage),
		Size: atoiOr(c.Query("size"), DefaultSize),
	}.Normalize()
}

// Paginate counts the rows matched by db, then loads the requested page into dest.
func Paginate[T any](db *gorm.DB, q Query, dest *[]T) (response.Pagination, error) {
	q = q.Normalize()

	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return response.Pagination{}, err
	}
	if err := db.Offset(q.Offset()).Limit(q.Size).Find(dest).Error; err != nil {
		return response.Pagination{}, err
	}
	return Meta(q, total), nil
}

// Meta builds the pagination block for total rows.
func Meta(q Query, total int64) response.Pagination {
	pages := int(total / int64(q.Size))
	if total%int64(q.Size) != 0 {
		pages++
	}
	return response.Pagination{
		Total:       total,
		CurrentPage: q.Page,
		TotalPage:   pages,
		Size:        q.Size,
		HasNextPage: q.Page < pages,
	}
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
