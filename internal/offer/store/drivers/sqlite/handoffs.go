package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
	"github.com/troyjfarrell/offergate/internal/offer/store"
	"github.com/troyjfarrell/offergate/pkg/cryptox"
)

type handoffsRepo struct {
	db *sql.DB
}

func (r *handoffsRepo) PutHandoff(ctx context.Context, rec domain.HandoffRecord) error {
	sealed, err := cryptox.Seal([]byte(rec.Token))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO handoffs (reference, sealed_token, rendered_template, clipboard_button, host, link, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Reference,
		sealed,
		rec.RenderedTemplate,
		string(rec.ClipboardButton),
		rec.Host,
		rec.Link,
		rec.Expires.UTC(),
	)
	return err
}

func (r *handoffsRepo) ConsumeHandoff(ctx context.Context, reference string, now time.Time) (domain.HandoffRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.HandoffRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		rec       domain.HandoffRecord
		sealed    []byte
		clipboard string
		expires   time.Time
	)
	err = tx.QueryRowContext(ctx, `
		SELECT reference, sealed_token, rendered_template, clipboard_button, host, link, expires_at
		FROM handoffs WHERE reference = ?`, reference,
	).Scan(&rec.Reference, &sealed, &rec.RenderedTemplate, &clipboard, &rec.Host, &rec.Link, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HandoffRecord{}, store.ErrNotFound
		}
		return domain.HandoffRecord{}, err
	}

	// Single-use: delete inside the same transaction as the read.
	if _, err := tx.ExecContext(ctx, `DELETE FROM handoffs WHERE reference = ?`, reference); err != nil {
		return domain.HandoffRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.HandoffRecord{}, err
	}

	if now.After(expires) {
		return domain.HandoffRecord{}, store.ErrNotFound
	}

	token, err := cryptox.Open(sealed)
	if err != nil {
		return domain.HandoffRecord{}, err
	}

	rec.Token = string(token)
	rec.ClipboardButton = domain.ClipboardButton(clipboard)
	rec.Expires = expires
	return rec, nil
}

func (r *handoffsRepo) DeleteExpiredHandoffs(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM handoffs WHERE expires_at <= ?`, now.UTC())
	return err
}
