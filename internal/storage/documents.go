package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"backoffice/internal/documents"
)

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// PendingDocument is the minimal data the export worker needs to pick up a
// document whose latest version has not been exported yet.
type PendingDocument struct {
	ID        int64          `json:"id"`
	Kind      documents.Kind `json:"kind"`
	Version   int64          `json:"version"`
	Deleted   bool           `json:"deleted"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateDocument stores a new document and fills in its ID, version and
// timestamps.
func (r *SQLiteRepository) CreateDocument(ctx context.Context, doc *documents.Document) error {
	now := time.Now().UTC()
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (kind, reference, payload, version, sync_status, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?)`,
		doc.Kind, doc.Reference, string(payload), SyncPending, now, now)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read document id: %w", err)
	}
	doc.ID = id

	slog.InfoContext(ctx, "Document saved", "id", id, "kind", doc.Kind, "reference", doc.Reference)
	return nil
}

// GetDocument returns a live document of the given kind.
func (r *SQLiteRepository) GetDocument(ctx context.Context, kind documents.Kind, id int64) (documents.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, payload, version, created_at, updated_at
		FROM documents
		WHERE id = ? AND kind = ? AND deleted_at IS NULL`, id, kind)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return documents.Document{}, fmt.Errorf("document %s/%d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return documents.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns live documents, most recently updated first. An empty
// kind lists every kind.
func (r *SQLiteRepository) ListDocuments(ctx context.Context, kind documents.Kind) ([]documents.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, payload, version, created_at, updated_at
		FROM documents
		WHERE deleted_at IS NULL AND (? = '' OR kind = ?)
		ORDER BY updated_at DESC, id DESC`, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []documents.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument replaces a document's content, bumps its version and queues
// it for export again. A non-zero doc.Version must match the stored one.
func (r *SQLiteRepository) UpdateDocument(ctx context.Context, doc *documents.Document) error {
	current, err := r.GetDocument(ctx, doc.Kind, doc.ID)
	if err != nil {
		return err
	}
	if doc.Version != 0 && doc.Version != current.Version {
		return fmt.Errorf("document %d at version %d, got %d: %w", doc.ID, current.Version, doc.Version, ErrVersionConflict)
	}

	now := time.Now().UTC()
	next := *doc
	next.Version = current.Version + 1
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = now

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET reference = ?, payload = ?, version = ?, sync_status = ?, updated_at = ?
		WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		next.Reference, string(payload), next.Version, SyncPending, now, doc.ID, current.Version)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %d: %w", doc.ID, ErrVersionConflict)
	}

	*doc = next
	slog.InfoContext(ctx, "Document updated", "id", doc.ID, "kind", doc.Kind, "version", doc.Version)
	return nil
}

// SoftDeleteDocument hides a document and queues the removal of its export
// row. It returns the version carrying the deletion.
func (r *SQLiteRepository) SoftDeleteDocument(ctx context.Context, kind documents.Kind, id int64) (int64, error) {
	now := time.Now().UTC()
	var version int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE documents
		SET deleted_at = ?, updated_at = ?, version = version + 1, sync_status = ?
		WHERE id = ? AND kind = ? AND deleted_at IS NULL
		RETURNING version`, now, now, SyncPending, id, kind).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("document %s/%d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("delete document: %w", err)
	}

	slog.InfoContext(ctx, "Document deleted", "id", id, "kind", kind, "version", version)
	return version, nil
}

// PendingSync returns up to limit documents, deleted ones included, whose
// latest version has not been exported. Oldest changes come first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, version, deleted_at IS NOT NULL, updated_at
		FROM documents
		WHERE sync_status = ?
		ORDER BY updated_at ASC, id ASC
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync documents: %w", err)
	}
	defer rows.Close()

	pending := []PendingDocument{}
	for rows.Next() {
		var p PendingDocument
		if err := rows.Scan(&p.ID, &p.Kind, &p.Version, &p.Deleted, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending document: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending sync documents: %w", err)
	}
	return pending, nil
}

// MarkSynced records that version of the document has been exported. An
// acknowledgement for an older version is ignored so a newer edit stays queued.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET sync_status = ? WHERE id = ? AND version = ?`,
		SyncSynced, id, version)
	if err != nil {
		return fmt.Errorf("mark document synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.syncStatus(ctx, id); err != nil {
			return err
		}
		slog.DebugContext(ctx, "Stale sync acknowledgement ignored", "id", id, "version", version)
		return nil
	}

	slog.InfoContext(ctx, "Document marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError parks version of a document whose export keeps failing. The
// poller skips it until the next edit queues it again. A report for an
// older version is ignored.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id, version int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET sync_status = ? WHERE id = ? AND version = ? AND sync_status = ?`,
		SyncError, id, version, SyncPending)
	if err != nil {
		return fmt.Errorf("mark document sync error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.syncStatus(ctx, id); err != nil {
			return err
		}
		slog.DebugContext(ctx, "Stale sync error report ignored", "id", id, "version", version)
		return nil
	}

	slog.WarnContext(ctx, "Document marked with sync error", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) syncStatus(ctx context.Context, id int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM documents WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (documents.Document, error) {
	var (
		doc     documents.Document
		id      int64
		payload string
		version int64
		created time.Time
		updated time.Time
	)
	if err := s.Scan(&id, &payload, &version, &created, &updated); err != nil {
		return doc, err
	}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return doc, fmt.Errorf("decode document %d: %w", id, err)
	}
	doc.ID = id
	doc.Version = version
	doc.CreatedAt = created
	doc.UpdatedAt = updated
	return doc, nil
}
