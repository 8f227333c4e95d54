package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sandroisu/ai-code-risk-analyzer/internal/contract"
	"github.com/Sandroisu/ai-code-risk-analyzer/schema"
)

// Table names for run tracking.
const (
	riskRunsTable    = "risk_runs"
	riskRecordsTable = "risk_records"
)

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore migrates the schema to the latest version and opens the store.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}
	if err := applyMigrations(backend, connStr); err != nil {
		return nil, err
	}
	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("analysis store: %w", err)
	}
	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

func (as *AnalysisStoreImpl) table(name string) string {
	return quoteTableName(name, as.backend)
}

// BeginRun creates a new scoring run and returns its store ID.
func (as *AnalysisStoreImpl) BeginRun(runUUID string, profile schema.WeightProfile, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	args := []any{runUUID, string(profile), formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, profile, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING analysis_id`, as.table(riskRunsTable))
		err = as.db.QueryRow(query, args...).Scan(&analysisID)
	} else {
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, profile, start_time, config_params) VALUES (?, ?, ?, ?)`, as.table(riskRunsTable))
		var result sql.Result
		if result, err = as.db.Exec(query, args...); err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert risk run: %w", err)
	}
	return analysisID, nil
}

// EndRun records the end time, duration and record count of a run.
func (as *AnalysisStoreImpl) EndRun(analysisID int64, endTime time.Time, totalPRs int) error {
	if as.db == nil {
		return nil
	}

	var raw any
	query := rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = ?`, as.table(riskRunsTable)), as.backend)
	if err := as.db.QueryRow(query, analysisID).Scan(&raw); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", analysisID, err)
	}
	startTime, err := scanTime(raw)
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}

	update := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_prs = ? WHERE analysis_id = ?`, as.table(riskRunsTable)), as.backend)
	if _, err := as.db.Exec(update, formatTime(endTime, as.backend), endTime.Sub(startTime).Milliseconds(), totalPRs, analysisID); err != nil {
		return fmt.Errorf("failed to update risk run: %w", err)
	}
	return nil
}

// RecordRiskRecord stores one scored record of a run.
func (as *AnalysisStoreImpl) RecordRiskRecord(analysisID int64, record schema.RiskRecord) error {
	if as.db == nil {
		return nil
	}

	row := schema.RowFromRecord(analysisID, record)
	query := rebind(fmt.Sprintf(`
		INSERT INTO %s (analysis_id, pr_number, title, feature_ci, feature_sa, feature_size,
		                feature_spread, feature_hot, feature_semantic, category, provenance,
		                score, zone, retro_flagged, retro_evidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, as.table(riskRecordsTable)), as.backend)
	_, err := as.db.Exec(query,
		row.AnalysisID, row.PRNumber, row.Title, row.FeatureCI, row.FeatureSA, row.FeatureSize,
		row.FeatureSpread, row.FeatureHot, row.FeatureSem, row.Category, row.Provenance,
		row.Score, row.Zone, row.RetroFlagged, row.RetroEvidence,
	)
	if err != nil {
		return fmt.Errorf("failed to insert risk record for PR %d: %w", record.Number, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", as.table(riskRunsTable))).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRaw, oldestRaw any
		lastQuery := fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", as.table(riskRunsTable))
		if err := as.db.QueryRow(lastQuery).Scan(&status.LastRunID, &lastRaw); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", as.table(riskRunsTable))
		if err := as.db.QueryRow(oldestQuery).Scan(&oldestRaw); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		var err error
		if status.LastRunTime, err = scanTime(lastRaw); err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		if status.OldestRunTime, err = scanTime(oldestRaw); err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
	}

	for _, table := range []string{riskRunsTable, riskRecordsTable} {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", as.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRecords = int(status.TableSizes[riskRecordsTable])
	return status, nil
}

// GetAllRuns retrieves every run ordered by ID.
func (as *AnalysisStoreImpl) GetAllRuns() ([]schema.RiskRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, profile, start_time, end_time, run_duration_ms, total_prs, config_params
		FROM %s ORDER BY analysis_id`, as.table(riskRunsTable))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RiskRunRecord
	for rows.Next() {
		var r schema.RiskRunRecord
		var startRaw, endRaw any
		var duration, total sql.NullInt64
		var params sql.NullString
		if err := rows.Scan(&r.AnalysisID, &r.RunUUID, &r.Profile, &startRaw, &endRaw, &duration, &total, &params); err != nil {
			return nil, fmt.Errorf("failed to scan risk run: %w", err)
		}
		if r.StartTime, err = scanTime(startRaw); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if r.EndTime, err = scanNullableTime(endRaw); err != nil {
			return nil, fmt.Errorf("failed to parse end_time: %w", err)
		}
		if duration.Valid {
			r.RunDurationMs = &duration.Int64
		}
		if total.Valid {
			r.TotalPRs = &total.Int64
		}
		if params.Valid {
			r.ConfigParams = &params.String
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk runs: %w", err)
	}
	return results, nil
}

// GetAllRecords retrieves every stored record ordered by run and PR number.
func (as *AnalysisStoreImpl) GetAllRecords() ([]schema.RiskRecordRow, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, pr_number, title, feature_ci, feature_sa, feature_size,
		feature_spread, feature_hot, feature_semantic, category, provenance, score, zone,
		retro_flagged, retro_evidence
		FROM %s ORDER BY analysis_id, pr_number`, as.table(riskRecordsTable))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RiskRecordRow
	for rows.Next() {
		var r schema.RiskRecordRow
		if err := rows.Scan(&r.AnalysisID, &r.PRNumber, &r.Title, &r.FeatureCI, &r.FeatureSA, &r.FeatureSize,
			&r.FeatureSpread, &r.FeatureHot, &r.FeatureSem, &r.Category, &r.Provenance, &r.Score, &r.Zone,
			&r.RetroFlagged, &r.RetroEvidence); err != nil {
			return nil, fmt.Errorf("failed to scan risk record: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk records: %w", err)
	}
	return results, nil
}
