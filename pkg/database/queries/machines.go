package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/machinemind/predictive-maintenance/pkg/models"
)

var ErrMachineNotFound = errors.New("machine not found")

type MachineRepository struct {
	db *sql.DB
}

func NewMachineRepository(db *sql.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

const machineColumns = `machine_id, code, name, type, location, status, metadata, created_at`

func scanMachine(row interface {
	Scan(dest ...interface{}) error
}) (*models.Machine, error) {
	var m models.Machine
	var metadata []byte

	err := row.Scan(
		&m.ID, &m.Code, &m.Name, &m.Type,
		&m.Location, &m.Status, &metadata, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, err
		}
	}

	return &m, nil
}

func (r *MachineRepository) GetByID(ctx context.Context, machineID string) (*models.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM machines WHERE machine_id = $1`

	machine, err := scanMachine(r.db.QueryRowContext(ctx, query, machineID))
	if err == sql.ErrNoRows {
		return nil, ErrMachineNotFound
	}
	if err != nil {
		return nil, err
	}

	return machine, nil
}

func (r *MachineRepository) GetByCode(ctx context.Context, code string) (*models.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM machines WHERE code = $1`

	machine, err := scanMachine(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, ErrMachineNotFound
	}
	if err != nil {
		return nil, err
	}

	return machine, nil
}

func (r *MachineRepository) List(ctx context.Context) ([]*models.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM machines ORDER BY code`

	return r.queryMachines(ctx, query)
}

func (r *MachineRepository) ListActive(ctx context.Context) ([]*models.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM machines WHERE status = 'ACTIVE' ORDER BY code`

	return r.queryMachines(ctx, query)
}

func (r *MachineRepository) queryMachines(ctx context.Context, query string, args ...interface{}) ([]*models.Machine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var machines []*models.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			return nil, err
		}
		machines = append(machines, m)
	}

	return machines, rows.Err()
}

func (r *MachineRepository) Create(ctx context.Context, machine *models.Machine) error {
	metadata, err := json.Marshal(machine.Metadata)
	if err != nil {
		return err
	}
	if machine.Metadata == nil {
		metadata = []byte(`{}`)
	}

	query := `
		INSERT INTO machines (code, name, type, location, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING machine_id, created_at`

	return r.db.QueryRowContext(ctx, query,
		machine.Code,
		machine.Name,
		machine.Type,
		machine.Location,
		machine.Status,
		metadata,
	).Scan(&machine.ID, &machine.CreatedAt)
}
