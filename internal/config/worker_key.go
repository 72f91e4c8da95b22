package config

type WorkerKeyStruct struct {
	GradeSheetsQueue   string
	PersistScoresQueue string
}

var WorkerKey = &WorkerKeyStruct{
	GradeSheetsQueue:   "grade_sheets_queue",
	PersistScoresQueue: "persist_scores_queue",
}
