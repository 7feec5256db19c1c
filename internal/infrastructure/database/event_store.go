package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"eventposter/internal/ports/output"
)

const (
	dialectPostgres = "postgres"

	tableEvents  = "guild_events"
	tableMembers = "member_fields"
	tableLinks   = "guild_custom_links"

	colGuild     = "guild_id"
	colHoster    = "hoster_id"
	colRecord    = "record"
	colUpdatedAt = "updated_at"
	colUser      = "user_id"
	colField     = "field"
	colValue     = "value"
	colID        = "id"
	colKeyword   = "keyword"
	colURL       = "url"
)

var _ output.EventStore = (*Store)(nil)

// DB is the part of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements output.EventStore on PostgreSQL.
type Store struct {
	db      DB
	dialect goqu.DialectWrapper
}

func NewStore(db DB) *Store {
	return &Store{db: db, dialect: goqu.Dialect(dialectPostgres)}
}

func (s *Store) Guilds(ctx context.Context) ([]int64, error) {
	query, args, err := s.dialect.From(tableEvents).
		Select(colGuild).Distinct().
		Order(goqu.C(colGuild).Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build guilds query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query guilds: %w", err)
	}
	guilds, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan guilds: %w", err)
	}
	return guilds, nil
}

func (s *Store) GuildEvents(ctx context.Context, guildID int64) (map[int64][]byte, error) {
	query, args, err := s.dialect.From(tableEvents).
		Select(colHoster, colRecord).
		Where(goqu.C(colGuild).Eq(guildID)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build guild events query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query guild events: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]byte)
	for rows.Next() {
		var (
			hoster int64
			raw    []byte
		)
		if err := rows.Scan(&hoster, &raw); err != nil {
			return nil, fmt.Errorf("scan guild event: %w", err)
		}
		out[hoster] = raw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guild events: %w", err)
	}
	return out, nil
}

func (s *Store) SaveEvent(ctx context.Context, guildID, hosterID int64, record []byte) error {
	query, args, err := s.saveEventSQL(guildID, hosterID, record)
	if err != nil {
		return fmt.Errorf("build save event query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

func (s *Store) saveEventSQL(guildID, hosterID int64, record []byte) (string, []any, error) {
	return s.dialect.Insert(tableEvents).
		Rows(goqu.Record{
			colGuild:     guildID,
			colHoster:    hosterID,
			colRecord:    string(record),
			colUpdatedAt: goqu.L("now()"),
		}).
		OnConflict(goqu.DoUpdate(colGuild+", "+colHoster, goqu.Record{
			colRecord:    goqu.L("EXCLUDED." + colRecord),
			colUpdatedAt: goqu.L("now()"),
		})).
		Prepared(true).ToSQL()
}

func (s *Store) DeleteEvent(ctx context.Context, guildID, hosterID int64) error {
	query, args, err := s.dialect.Delete(tableEvents).
		Where(goqu.C(colGuild).Eq(guildID), goqu.C(colHoster).Eq(hosterID)).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete event query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *Store) MemberField(ctx context.Context, guildID, userID int64, field string) (string, bool, error) {
	query, args, err := s.dialect.From(tableMembers).
		Select(colValue).
		Where(goqu.C(colGuild).Eq(guildID), goqu.C(colUser).Eq(userID), goqu.C(colField).Eq(field)).
		Prepared(true).ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build member field query: %w", err)
	}
	var value string
	err = s.db.QueryRow(ctx, query, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get member field: %w", err)
	}
	return value, true, nil
}

func (s *Store) SetMemberField(ctx context.Context, guildID, userID int64, field, value string) error {
	query, args, err := s.dialect.Insert(tableMembers).
		Rows(goqu.Record{colGuild: guildID, colUser: userID, colField: field, colValue: value}).
		OnConflict(goqu.DoUpdate(colGuild+", "+colUser+", "+colField, goqu.Record{
			colValue: goqu.L("EXCLUDED." + colValue),
		})).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build set member field query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set member field: %w", err)
	}
	return nil
}

// CustomLinks returns the guild's links in insertion order.
func (s *Store) CustomLinks(ctx context.Context, guildID int64) ([]output.CustomLink, error) {
	query, args, err := s.dialect.From(tableLinks).
		Select(colKeyword, colURL).
		Where(goqu.C(colGuild).Eq(guildID)).
		Order(goqu.C(colID).Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build custom links query: %w", err)
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query custom links: %w", err)
	}
	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (output.CustomLink, error) {
		var l output.CustomLink
		err := row.Scan(&l.Keyword, &l.URL)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan custom links: %w", err)
	}
	return links, nil
}

func (s *Store) SetCustomLink(ctx context.Context, guildID int64, keyword, url string) error {
	query, args, err := s.dialect.Insert(tableLinks).
		Rows(goqu.Record{colGuild: guildID, colKeyword: keyword, colURL: url}).
		OnConflict(goqu.DoUpdate(colGuild+", "+colKeyword, goqu.Record{
			colURL: goqu.L("EXCLUDED." + colURL),
		})).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build set custom link query: %w", err)
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("set custom link: %w", err)
	}
	return nil
}
