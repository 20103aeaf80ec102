package sqlite

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

type achievements struct{ db *sql.DB }

func (a *achievements) Unlock(ctx context.Context, ach *model.Achievement) (*model.OutboxEntry, error) {
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := sq.Insert("achievements").
		Columns("owner_id", "achievement_id", "unlocked_at").
		Values(ach.OwnerID, ach.AchievementID, toMillis(ach.UnlockedAt)).
		Suffix("ON CONFLICT(owner_id, achievement_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, err
	}
	n, err := execCount(ctx, tx, query, args)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, tx.Commit()
	}

	entry := &model.OutboxEntry{
		OwnerID:   ach.OwnerID,
		Operation: model.OpUnlockAchievement,
		Payload: map[string]interface{}{
			"ownerId":       ach.OwnerID,
			"achievementId": ach.AchievementID,
			"unlockedAt":    toMillis(ach.UnlockedAt),
		},
		CreatedAt: ach.UnlockedAt,
	}
	if err := writeOutbox(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (a *achievements) List(ctx context.Context, ownerID string) ([]*model.Achievement, error) {
	query, args, err := sq.Select("achievement_id", "unlocked_at").
		From("achievements").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("unlocked_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Achievement
	for rows.Next() {
		ach := model.Achievement{OwnerID: ownerID}
		var unlocked int64
		if err := rows.Scan(&ach.AchievementID, &unlocked); err != nil {
			return nil, err
		}
		ach.UnlockedAt = fromMillis(unlocked)
		out = append(out, &ach)
	}
	return out, rows.Err()
}
