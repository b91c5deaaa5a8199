package gorm

import (
	"strings"

	"github.com/ichigozero/todokit/todosvc"
	stdgorm "gorm.io/gorm"
)

// likeEscape is accepted as an ESCAPE character by SQLite, PostgreSQL and
// MySQL alike, unlike the backslash.
const likeEscape = "!"

var likeReplacer = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

func ownedBy(userID uint64) func(*stdgorm.DB) *stdgorm.DB {
	return func(db *stdgorm.DB) *stdgorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// matching narrows to rows whose title or description contains search as a
// literal, case-insensitive substring. An empty search matches everything.
// Both sides are folded by the database's LOWER so they always agree; SQLite
// folds ASCII letters only.
func matching(search string) func(*stdgorm.DB) *stdgorm.DB {
	return func(db *stdgorm.DB) *stdgorm.DB {
		if search == "" {
			return db
		}
		pattern := "%" + likeReplacer.Replace(search) + "%"
		return db.Where(
			"(LOWER(title) LIKE LOWER(?) ESCAPE '"+likeEscape+"' OR LOWER(description) LIKE LOWER(?) ESCAPE '"+likeEscape+"')",
			pattern, pattern,
		)
	}
}

func paginate(q todosvc.ListQuery) func(*stdgorm.DB) *stdgorm.DB {
	return func(db *stdgorm.DB) *stdgorm.DB {
		return db.Offset(q.Offset()).Limit(q.Limit)
	}
}
