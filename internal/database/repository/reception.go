package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/avelot/recyclerie/internal/database"
)

// ReceptionRepo handles postes, tickets and lignes. The import executor is
// its only writer in this codebase.
type ReceptionRepo struct{ db *sql.DB }

func NewReceptionRepo(db *sql.DB) *ReceptionRepo { return &ReceptionRepo{db: db} }

// FindOpenPoste returns the most recently opened poste still in status
// "ouvert" for the given user, or nil when none exists.
func (r *ReceptionRepo) FindOpenPoste(ctx context.Context, userID string) (*PosteReception, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, opened_by, status, opened_at
	FROM postes_reception
	WHERE opened_by = ? AND status = ?
	ORDER BY opened_at DESC LIMIT 1
	`, userID, PosteOuvert)
	var p PosteReception
	var openedAt string
	if err := row.Scan(&p.ID, &p.OpenedBy, &p.Status, &openedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	p.OpenedAt, _ = time.Parse(time.DateTime, openedAt)
	return &p, nil
}

// OpenPosteWithTicket creates a poste and its first ticket in one
// transaction: a ticket failure must not leave an orphan open poste behind.
func (r *ReceptionRepo) OpenPosteWithTicket(ctx context.Context, p PosteReception, t TicketDepot) error {
	return database.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO postes_reception(id, opened_by, status, opened_at) VALUES(?, ?, ?, ?)
		`, p.ID, p.OpenedBy, p.Status, database.Now().Format(time.DateTime)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO tickets_depot(id, poste_id, created_by) VALUES(?, ?, ?)
		`, t.ID, t.PosteID, t.CreatedBy)
		return err
	})
}

func (r *ReceptionRepo) ClosePoste(ctx context.Context, posteID string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE postes_reception SET status = ?, closed_at = ? WHERE id = ?
	`, PosteFerme, database.Now().Format(time.DateTime), posteID)
	return err
}

func (r *ReceptionRepo) CreateTicket(ctx context.Context, t TicketDepot) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO tickets_depot(id, poste_id, created_by) VALUES(?, ?, ?)
	`, t.ID, t.PosteID, t.CreatedBy)
	return err
}

func (r *ReceptionRepo) CreateLigne(ctx context.Context, l LigneDepot) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO lignes_depot(id, ticket_id, category_id, poids_kg, destination, notes, deposited_on)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.TicketID, l.CategoryID, l.PoidsKg, l.Destination, l.Notes, l.DepositedOn.Format(time.DateOnly))
	return err
}

// CountLignes returns the number of lignes under a ticket.
func (r *ReceptionRepo) CountLignes(ctx context.Context, ticketID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lignes_depot WHERE ticket_id = ?`, ticketID).Scan(&n)
	return n, err
}
