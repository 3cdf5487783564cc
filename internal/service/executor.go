package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avelot/recyclerie/internal/database/repository"
)

// ApprovedMapping is the human-approved artifact bridging analyze and
// execute: the reviewed mappings plus the names deliberately left unmapped.
type ApprovedMapping struct {
	Mappings map[string]CategoryMapping `json:"mappings"`
	Unmapped []string                   `json:"unmapped"`
}

// ImportReport summarizes one execute run. It is returned to the caller and
// never persisted.
type ImportReport struct {
	PosteID        string   `json:"poste_id"`
	TicketID       string   `json:"ticket_id"`
	PostesCreated  int      `json:"postes_created"`
	PostesReused   int      `json:"postes_reused"`
	TicketsCreated int      `json:"tickets_created"`
	LignesImported int      `json:"lignes_imported"`
	Errors         []string `json:"errors"`
	TotalErrors    int      `json:"total_errors"`
}

// Executor commits an approved mapping against the original CSV. It is the
// only stage that creates poste/ticket/ligne records. Failures are isolated
// per row; a malformed row never aborts the batch, and committed rows are
// never rolled back because of a later failure.
type Executor struct {
	Categories *repository.CategoryRepo
	Reception  *repository.ReceptionRepo
	Log        *logrus.Logger
}

// Execute re-parses the CSV, reuses or creates a reception poste, creates one
// ticket for the run, and one ligne per resolvable row. The two fatal cases
// are a malformed mapping file and missing CSV headers; everything else
// degrades to report errors.
func (e *Executor) Execute(ctx context.Context, csvData, mappingJSON []byte, userID string) (*ImportReport, error) {
	approved, err := decodeApprovedMapping(mappingJSON)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("identifiant utilisateur requis")
	}

	rows, report := ParseRows(csvData)
	if len(report.Statistics.MissingColumns) > 0 {
		return nil, fmt.Errorf("colonnes obligatoires manquantes: %s", strings.Join(report.Statistics.MissingColumns, ", "))
	}

	out := &ImportReport{Errors: []string{}}
	// Row-level validation problems are carried into the report so the
	// operator sees why lines are missing from the import.
	out.Errors = append(out.Errors, report.Errors...)

	poste, err := e.Reception.FindOpenPoste(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("poste de réception: %w", err)
	}
	ticket := repository.TicketDepot{
		ID:        uuid.NewString(),
		CreatedBy: userID,
	}
	if poste != nil {
		ticket.PosteID = poste.ID
		if err := e.Reception.CreateTicket(ctx, ticket); err != nil {
			return nil, fmt.Errorf("création du ticket: %w", err)
		}
		out.PostesReused++
	} else {
		poste = &repository.PosteReception{
			ID:       uuid.NewString(),
			OpenedBy: userID,
			Status:   repository.PosteOuvert,
		}
		ticket.PosteID = poste.ID
		if err := e.Reception.OpenPosteWithTicket(ctx, *poste, ticket); err != nil {
			return nil, fmt.Errorf("ouverture du poste: %w", err)
		}
		out.PostesCreated++
	}
	out.TicketsCreated++
	out.PosteID = poste.ID
	out.TicketID = ticket.ID

	for _, row := range rows {
		mapping, ok := approved.Mappings[row.CategoryRaw]
		if !ok {
			out.Errors = append(out.Errors, fmt.Sprintf("catégorie non mappée ou absente à la ligne %d: %q", row.Line, row.CategoryRaw))
			continue
		}

		cat, err := e.Categories.Get(ctx, mapping.CategoryID)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("ligne %d: lecture de la catégorie %s: %v", row.Line, mapping.CategoryID, err))
			continue
		}
		if cat == nil || !cat.Active {
			out.Errors = append(out.Errors, fmt.Sprintf("ligne %d: catégorie archivée ou inconnue: %s", row.Line, mapping.CategoryName))
			continue
		}

		ligne := repository.LigneDepot{
			ID:          uuid.NewString(),
			TicketID:    ticket.ID,
			CategoryID:  cat.ID,
			PoidsKg:     row.PoidsKg,
			Destination: nullable(row.Destination),
			Notes:       nullable(row.Notes),
			DepositedOn: row.Date,
		}
		if err := e.Reception.CreateLigne(ctx, ligne); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("ligne %d: création impossible: %v", row.Line, err))
			continue
		}
		out.LignesImported++
	}

	out.TotalErrors = len(out.Errors)
	e.logger().WithFields(logrus.Fields{
		"poste":   poste.ID,
		"ticket":  ticket.ID,
		"lignes":  out.LignesImported,
		"erreurs": out.TotalErrors,
	}).Info("execute: import terminé")
	return out, nil
}

// decodeApprovedMapping enforces the mapping-file shape before any write:
// both "mappings" and "unmapped" keys must be present.
func decodeApprovedMapping(mappingJSON []byte) (*ApprovedMapping, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(mappingJSON, &shape); err != nil {
		return nil, fmt.Errorf("fichier de mapping invalide: %w", err)
	}
	for _, key := range []string{"mappings", "unmapped"} {
		if _, ok := shape[key]; !ok {
			return nil, fmt.Errorf("fichier de mapping invalide: clé %q manquante", key)
		}
	}
	var approved ApprovedMapping
	if err := json.Unmarshal(mappingJSON, &approved); err != nil {
		return nil, fmt.Errorf("fichier de mapping invalide: %w", err)
	}
	if approved.Mappings == nil {
		approved.Mappings = map[string]CategoryMapping{}
	}
	return &approved, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (e *Executor) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}
