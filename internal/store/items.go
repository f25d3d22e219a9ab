package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `i.id, i.uuid, i.name, i.category, i.description, i.date_found,
	i.image IS NOT NULL, i.claimed, u.username, i.created_at`

// CreateItem stores a new item posted by userID. image may be nil.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, fields model.NewItem, image []byte, mime string) (*model.Item, error) {
	var imageArg, mimeArg any
	if image != nil {
		imageArg, mimeArg = image, mime
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (uuid, user_id, name, category, description, date_found, image, image_mime)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New(), userID, fields.Name, fields.Category, fields.Description, fields.DateFound, imageArg, mimeArg,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if there is none.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN users u ON u.id = i.user_id
		 WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns one page of items, newest first, and the total count.
func ListItems(ctx context.Context, db *sql.DB, limit, offset int) ([]model.Item, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM items i JOIN users u ON u.id = i.user_id
		 ORDER BY i.created_at DESC, i.id DESC
		 LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var createdAt time.Time
	err := s.Scan(&item.ID, &item.UUID, &item.Name, &item.Category, &item.Description,
		&item.DateFound, &item.HasImage, &item.Claimed, &item.UserName, &createdAt)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = &createdAt
	return item, nil
}

// SetItemClaimed sets an item's claimed flag. It reports whether the item exists.
func SetItemClaimed(ctx context.Context, db *sql.DB, id int64, claimed bool) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET claimed = ? WHERE id = ?`, claimed, id,
	)
	if err != nil {
		return false, fmt.Errorf("updating claimed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating claimed: %w", err)
	}
	return n > 0, nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
