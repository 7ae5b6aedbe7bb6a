package logstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/spiritengine/skein/internal/types"
)

// AddYield persists a chain-yield record. Yields are never rewritten
// once created (§4.6); callers must not call AddYield twice for the
// same sack id.
func (d *DB) AddYield(y types.Yield) error {
	artifactsJSON, err := json.Marshal(y.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal yield artifacts: %w", err)
	}
	metaJSON, err := json.Marshal(nonNilMap(y.Metadata))
	if err != nil {
		return fmt.Errorf("failed to marshal yield metadata: %w", err)
	}

	var enrichmentJSON []byte
	if y.Enrichment != nil {
		enrichmentJSON, err = json.Marshal(y.Enrichment)
		if err != nil {
			return fmt.Errorf("failed to marshal yield enrichment: %w", err)
		}
	}

	_, err = d.conn.Exec(`
		INSERT INTO yields (sack_id, chain_id, task_id, agent_id, timestamp, status, outcome, artifacts, notes, enrichment, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, y.ID, y.ChainID, y.TaskID, y.AgentID, y.Timestamp.UTC(), string(y.Status), y.Outcome,
		string(artifactsJSON), y.Notes, nullableJSON(enrichmentJSON), string(metaJSON))
	if err != nil {
		return fmt.Errorf("failed to insert yield: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

// GetChainYields returns every yield in chainID ordered by timestamp
// ascending — the hand-off order a successor walks (§4.6).
func (d *DB) GetChainYields(chainID string) ([]types.Yield, error) {
	rows, err := d.conn.Query(`
		SELECT sack_id, chain_id, task_id, agent_id, timestamp, status, outcome, artifacts, notes, enrichment, metadata
		FROM yields WHERE chain_id = ? ORDER BY timestamp ASC
	`, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain yields: %w", err)
	}
	defer rows.Close()
	return scanYields(rows)
}

// GetYieldsByStatus returns every yield with the given status, newest
// first.
func (d *DB) GetYieldsByStatus(status types.YieldStatus) ([]types.Yield, error) {
	rows, err := d.conn.Query(`
		SELECT sack_id, chain_id, task_id, agent_id, timestamp, status, outcome, artifacts, notes, enrichment, metadata
		FROM yields WHERE status = ? ORDER BY timestamp DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query yields by status: %w", err)
	}
	defer rows.Close()
	return scanYields(rows)
}

// GetAgentYields returns every yield an agent produced, newest first.
func (d *DB) GetAgentYields(agentID string) ([]types.Yield, error) {
	rows, err := d.conn.Query(`
		SELECT sack_id, chain_id, task_id, agent_id, timestamp, status, outcome, artifacts, notes, enrichment, metadata
		FROM yields WHERE agent_id = ? ORDER BY timestamp DESC
	`, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent yields: %w", err)
	}
	defer rows.Close()
	return scanYields(rows)
}

// GetYield returns the single yield identified by sackID, ok is false
// when no such yield exists (`GET /yields/{sack_id}`, §6.1).
func (d *DB) GetYield(sackID string) (y types.Yield, ok bool, err error) {
	rows, err := d.conn.Query(`
		SELECT sack_id, chain_id, task_id, agent_id, timestamp, status, outcome, artifacts, notes, enrichment, metadata
		FROM yields WHERE sack_id = ?
	`, sackID)
	if err != nil {
		return types.Yield{}, false, fmt.Errorf("failed to query yield: %w", err)
	}
	defer rows.Close()

	yields, err := scanYields(rows)
	if err != nil {
		return types.Yield{}, false, err
	}
	if len(yields) == 0 {
		return types.Yield{}, false, nil
	}
	return yields[0], true, nil
}

// GetPreviousYield returns the yield immediately preceding before in
// chainID by timestamp, the record a newly-ignited successor reads to
// learn what its predecessor handed off. ok is false when before is
// the first yield in its chain.
func (d *DB) GetPreviousYield(chainID string, before types.Yield) (y types.Yield, ok bool, err error) {
	rows, err := d.conn.Query(`
		SELECT sack_id, chain_id, task_id, agent_id, timestamp, status, outcome, artifacts, notes, enrichment, metadata
		FROM yields WHERE chain_id = ? AND timestamp < ? ORDER BY timestamp DESC LIMIT 1
	`, chainID, before.Timestamp.UTC())
	if err != nil {
		return types.Yield{}, false, fmt.Errorf("failed to query previous yield: %w", err)
	}
	defer rows.Close()

	yields, err := scanYields(rows)
	if err != nil {
		return types.Yield{}, false, err
	}
	if len(yields) == 0 {
		return types.Yield{}, false, nil
	}
	return yields[0], true, nil
}

func scanYields(rows *sql.Rows) ([]types.Yield, error) {
	var out []types.Yield
	for rows.Next() {
		var y types.Yield
		var taskID, agentID, outcome, notes sql.NullString
		var status string
		var artifactsJSON, metaJSON sql.NullString
		var enrichmentJSON sql.NullString

		if err := rows.Scan(&y.ID, &y.ChainID, &taskID, &agentID, &y.Timestamp, &status, &outcome,
			&artifactsJSON, &notes, &enrichmentJSON, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan yield row: %w", err)
		}

		y.TaskID = taskID.String
		y.AgentID = agentID.String
		y.Status = types.YieldStatus(status)
		y.Outcome = outcome.String
		y.Notes = notes.String

		if artifactsJSON.Valid && artifactsJSON.String != "" && artifactsJSON.String != "null" {
			if err := json.Unmarshal([]byte(artifactsJSON.String), &y.Artifacts); err != nil {
				return nil, fmt.Errorf("failed to unmarshal yield artifacts: %w", err)
			}
		}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &y.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal yield metadata: %w", err)
			}
		}
		if enrichmentJSON.Valid && enrichmentJSON.String != "" {
			var e types.YieldEnrichment
			if err := json.Unmarshal([]byte(enrichmentJSON.String), &e); err != nil {
				return nil, fmt.Errorf("failed to unmarshal yield enrichment: %w", err)
			}
			y.Enrichment = &e
		}

		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating yield rows: %w", err)
	}
	return out, nil
}
