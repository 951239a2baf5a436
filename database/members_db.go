package database

import (
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/facette/natsort"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Member is the roster read-model: a ClassAccess joined with its class,
// flattened for the one batch query the reconciliation fetcher issues per
// album. It is never written back.
type Member struct {
	AccessID     int64   `json:"access_id"`
	ClassID      int64   `json:"class_id"`
	UserID       int64   `json:"user_id"`
	DisplayName  string  `json:"display_name"`
	Email        *string `json:"email,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
	SocialHandle *string `json:"social_handle,omitempty"`
	Message      *string `json:"message,omitempty"`
	PhotoPath    *string `json:"photo_path,omitempty"`
	VideoPath    *string `json:"video_path,omitempty"`
	JoinedAt     int64   `json:"joined_at"`
}

// ListAlbumMembers retrieves every class's approved members in one query,
// ordered by class position and then by the album's roster sort order.
func ListAlbumMembers(db *sql.DB, albumID int64, sortOrder string) ([]Member, error) {
	queryBuilder := psql.Select(
		"ca.id", "ca.class_id", "ca.user_id", "ca.display_name",
		"ca.email", "ca.date_of_birth", "ca.social_handle", "ca.message",
		"ca.photo_path", "ca.video_path", "ca.created_at",
	).
		From("class_accesses ca").
		Join("classes c ON c.id = ca.class_id").
		Where(sq.Eq{"ca.album_id": albumID, "ca.status": "approved"}).
		Where("ca.deleted_at IS NULL").
		Where("c.deleted_at IS NULL").
		OrderBy("c.sort_order ASC", "ca.created_at ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListAlbumMembers: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListAlbumMembers query: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		var joined sql.NullTime
		err := rows.Scan(&m.AccessID, &m.ClassID, &m.UserID, &m.DisplayName,
			&m.Email, &m.DateOfBirth, &m.SocialHandle, &m.Message,
			&m.PhotoPath, &m.VideoPath, &joined)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		if joined.Valid {
			m.JoinedAt = joined.Time.Unix()
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	sortMembers(members, sortOrder)
	return members, nil
}

// sortMembers re-orders members within each class according to the album's
// roster sort option. Class order (sort_order) is already applied by SQL; rows
// of one class are contiguous, so each run is sorted independently.
func sortMembers(members []Member, sortOrder string) {
	if sortOrder == SortJoinedAsc {
		return // already the SQL ordering
	}
	for start := 0; start < len(members); {
		end := start + 1
		for end < len(members) && members[end].ClassID == members[start].ClassID {
			end++
		}
		run := members[start:end]
		switch sortOrder {
		case SortNameNat:
			sort.SliceStable(run, func(i, j int) bool {
				return natsort.Compare(run[i].DisplayName, run[j].DisplayName)
			})
		case SortNameAsc:
			sort.SliceStable(run, func(i, j int) bool {
				return run[i].DisplayName < run[j].DisplayName
			})
		}
		start = end
	}
}
