package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	Format string `json:"format"`

	RowsReceived int      `json:"rows_received"`
	RowsSkipped  int      `json:"rows_skipped"`
	SkippedRows  []string `json:"skipped_rows,omitempty"`

	SessionsInserted int64 `json:"sessions_inserted"`
	SessionsExisting int64 `json:"sessions_existing"`
	ExercisesCreated int   `json:"exercises_created"`

	// LoadMismatches counts rows whose stored total load differed from the
	// recomputed one by more than a hundredth.
	LoadMismatches int `json:"load_mismatches"`

	Message string `json:"message,omitempty"`
}
