package repos

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sundholm/circad/internal/models"
)

const initSchema = `
  CREATE TABLE IF NOT EXISTS light (
    entity_id VARCHAR(36) PRIMARY KEY,
    serviceid_zigbee VARCHAR(36),
    name TEXT,
    excluded INTEGER DEFAULT 0,
    on_state INTEGER DEFAULT 0,
    supports_colour_temp INTEGER DEFAULT 1,
    reachable INTEGER DEFAULT 1,
    override_active INTEGER DEFAULT 0,
    cmd_brightness INTEGER,
    cmd_colour_temp INTEGER,
    cmd_computed_at TIMESTAMP,
    cmd_time TIMESTAMP
  );

  DELETE FROM light;
`

// LightRepo is the registry of managed lights. Lights are rediscovered on
// every start so the table is truncated at init.
type LightRepo struct {
	logger *log.Logger
	db     *sql.DB
}

func NewLightRepo(logger *log.Logger, db *sql.DB) (*LightRepo, error) {
	if _, err := db.Exec(initSchema); err != nil {
		return nil, fmt.Errorf("initialising light schema: %w", err)
	}
	return &LightRepo{logger: logger, db: db}, nil
}

func (r *LightRepo) Add(lights []models.Light) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	for _, light := range lights {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO light
       (entity_id, serviceid_zigbee, name, excluded, on_state, supports_colour_temp)
       VALUES ($1, $2, $3, $4, $5, $6);`,
			light.EntityID,
			light.ZigbeeServiceID,
			light.Name,
			light.Excluded,
			light.On,
			light.SupportsColorTemp,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("adding light (%s): %w", light.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("adding lights: %w", err)
	}
	return nil
}

// Remove drops a light from the managed set.
func (r *LightRepo) Remove(entityID string) error {
	_, err := r.db.Exec(`DELETE FROM light WHERE entity_id = $1;`, entityID)
	return err
}

func (r *LightRepo) Get(entityID string) (models.Light, error) {
	row := r.db.QueryRow(selectColumns+` WHERE entity_id = $1;`, entityID)
	return scanLight(row)
}

func (r *LightRepo) All() ([]models.Light, error) {
	rows, err := r.db.Query(selectColumns + ` ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lights []models.Light
	for rows.Next() {
		light, err := scanLight(rows)
		if err != nil {
			return nil, err
		}
		lights = append(lights, light)
	}
	return lights, rows.Err()
}

// IsManaged reports whether the entity belongs to the managed set.
func (r *LightRepo) IsManaged(entityID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM light WHERE entity_id = $1;`, entityID).Scan(&count)
	return count > 0, err
}

// EntityIDForZigbeeID resolves the zigbee connectivity service id reported in
// bridge events back to the light entity.
func (r *LightRepo) EntityIDForZigbeeID(zigbeeID string) (string, error) {
	var entityID string
	err := r.db.QueryRow(`SELECT entity_id FROM light WHERE serviceid_zigbee = $1;`, zigbeeID).Scan(&entityID)
	if err != nil {
		return "", fmt.Errorf("no light for zigbee service (%s): %w", zigbeeID, err)
	}
	return entityID, nil
}

// SyncExclusions applies the configured exclusion set. Exclusion changes take
// effect on the next tick and clear no other state.
func (r *LightRepo) SyncExclusions(excluded map[string]bool) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE light SET excluded = 0;`); err != nil {
		tx.Rollback()
		return err
	}
	for entityID := range excluded {
		if _, err := tx.Exec(`UPDATE light SET excluded = 1 WHERE entity_id = $1;`, entityID); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *LightRepo) SetOn(entityID string, on bool) error {
	_, err := r.db.Exec(`UPDATE light SET on_state = $1 WHERE entity_id = $2;`, on, entityID)
	return err
}

func (r *LightRepo) SetReachable(entityID string, reachable bool) error {
	_, err := r.db.Exec(`UPDATE light SET reachable = $1 WHERE entity_id = $2;`, reachable, entityID)
	return err
}

func (r *LightRepo) SetOverride(entityID string, active bool) error {
	_, err := r.db.Exec(`UPDATE light SET override_active = $1 WHERE entity_id = $2;`, active, entityID)
	return err
}

// RecordCommand stores the target just dispatched; only the immediately
// preceding command is kept.
func (r *LightRepo) RecordCommand(entityID string, target models.Target, at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE light SET cmd_brightness = $1, cmd_colour_temp = $2, cmd_computed_at = $3, cmd_time = $4
     WHERE entity_id = $5;`,
		target.BrightnessPct, target.ColorTempK, target.ComputedAt, at, entityID,
	)
	return err
}

// ResetCommandState clears the last commanded target and the override flag.
// Called when a light is power-cycled; this is the only way an override is
// cleared.
func (r *LightRepo) ResetCommandState(entityID string) error {
	_, err := r.db.Exec(
		`UPDATE light SET override_active = 0, cmd_brightness = NULL, cmd_colour_temp = NULL,
       cmd_computed_at = NULL, cmd_time = NULL
     WHERE entity_id = $1;`,
		entityID,
	)
	return err
}

const selectColumns = `
  SELECT entity_id, serviceid_zigbee, name, excluded, on_state, supports_colour_temp,
         reachable, override_active, cmd_brightness, cmd_colour_temp, cmd_computed_at, cmd_time
  FROM light`

type scannable interface {
	Scan(dest ...any) error
}

func scanLight(row scannable) (models.Light, error) {
	var (
		light         models.Light
		cmdBrightness sql.NullInt64
		cmdColourTemp sql.NullInt64
		cmdComputedAt sql.NullTime
		cmdTime       sql.NullTime
	)
	err := row.Scan(
		&light.EntityID,
		&light.ZigbeeServiceID,
		&light.Name,
		&light.Excluded,
		&light.On,
		&light.SupportsColorTemp,
		&light.Reachable,
		&light.OverrideActive,
		&cmdBrightness,
		&cmdColourTemp,
		&cmdComputedAt,
		&cmdTime,
	)
	if err != nil {
		return models.Light{}, err
	}
	if cmdBrightness.Valid && cmdColourTemp.Valid {
		light.LastCommanded = &models.Target{
			BrightnessPct: int(cmdBrightness.Int64),
			ColorTempK:    int(cmdColourTemp.Int64),
			ComputedAt:    cmdComputedAt.Time,
		}
		light.LastCommandedAt = cmdTime.Time
	}
	return light, nil
}
