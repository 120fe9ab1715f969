package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cortega/playerauction/internal/roster/domain"
	"github.com/cortega/playerauction/internal/shared/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// playerRow is one CSV record before it becomes a Player.
// Expected columns: name, role, base_price (header row optional).
type playerRow struct {
	Name      string  `validate:"required"`
	Role      string  `validate:"-"`
	BasePrice float64 `validate:"required,gt=0"`
}

// RowError reports one rejected CSV line.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportReport summarizes a tolerant import: valid rows are inserted even
// when others fail.
type ImportReport struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped,omitempty"`
}

// ImportPlayersUseCase parses a roster CSV and inserts every valid row as
// an available player.
type ImportPlayersUseCase struct {
	players  domain.PlayerRepository
	validate *validator.Validate
}

func NewImportPlayersUseCase(players domain.PlayerRepository, validate *validator.Validate) *ImportPlayersUseCase {
	return &ImportPlayersUseCase{
		players:  players,
		validate: validate,
	}
}

func (uc *ImportPlayersUseCase) Execute(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	report := &ImportReport{}
	var players []*domain.Player
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Reason: "malformed CSV row"})
			continue
		}
		// Header row is optional.
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}

		row, err := parseRow(record)
		if err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}
		if err := uc.validate.Struct(row); err != nil {
			report.Skipped = append(report.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}

		players = append(players, domain.NewPlayer(uuid.New(), row.Name, row.Role, row.BasePrice))
	}

	if err := uc.players.BulkInsert(ctx, players); err != nil {
		return nil, fmt.Errorf("import players: bulk insert: %w", err)
	}
	report.Imported = len(players)

	log.Info("Roster import completed",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func parseRow(record []string) (playerRow, error) {
	if len(record) < 3 {
		return playerRow{}, fmt.Errorf("expected 3 columns (name, role, base_price), got %d", len(record))
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return playerRow{}, fmt.Errorf("invalid base price %q", record[2])
	}
	return playerRow{
		Name:      strings.TrimSpace(record[0]),
		Role:      strings.TrimSpace(record[1]),
		BasePrice: price,
	}, nil
}
