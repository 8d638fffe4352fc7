package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ScoringWeights mirrors scoring.Params for persistence without importing
// the scoring package.
type ScoringWeights struct {
	InputRecoveredFactor    float64 `json:"input_recovered_factor"`
	OutputRecoveredFactor   float64 `json:"output_recovered_factor"`
	UnitSingleInputPenalty  float64 `json:"unit_single_input_penalty"`
	UnitBothInputsFactor    float64 `json:"unit_both_inputs_factor"`
	TermRecoveredFactor     float64 `json:"term_recovered_factor"`
	FunctionRecoveredFactor float64 `json:"function_recovered_factor"`
	DistanceFactor          float64 `json:"distance_factor"`
	SpeedPriorFactor        float64 `json:"speed_prior_factor"`
	DistanceTermWeight      float64 `json:"distance_term_weight"`
	DistanceSizeWeight      float64 `json:"distance_size_weight"`
}

type NoiseSettings struct {
	StartFraction          float64 `json:"start_fraction"`
	Decay                  float64 `json:"decay"`
	MinFraction            float64 `json:"min_fraction"`
	MutateValidProbability float64 `json:"mutate_valid_probability"`
	RetryBudget            int     `json:"retry_budget"`
}

type IterationRecord struct {
	Iteration       int     `json:"iteration"`
	BestFitness     float64 `json:"best_fitness"`
	IterationBest   float64 `json:"iteration_best"`
	ExactRecoveries int     `json:"exact_recoveries"`
	Fraction        float64 `json:"fraction"`
	Mutations       int     `json:"mutations"`
	Rejections      int     `json:"rejections"`
}

// Run is the persisted outcome of one search.
type Run struct {
	VersionedRecord
	ID              string            `json:"id"`
	CreatedAtUTC    string            `json:"created_at_utc"`
	Target          Polynomial        `json:"target"`
	PopulationSize  int               `json:"population_size"`
	Iterations      int               `json:"iterations"`
	Cycles          int               `json:"cycles"`
	Clones          int               `json:"clones"`
	Seed            int64             `json:"seed"`
	Workers         int               `json:"workers"`
	Scoring         ScoringWeights    `json:"scoring"`
	Noise           NoiseSettings     `json:"noise"`
	History         []IterationRecord `json:"history"`
	BestFitness     float64           `json:"best_fitness"`
	ExactRecoveries int               `json:"exact_recoveries"`
	BestWiring      Wiring            `json:"best_wiring"`
}

// Population is a snapshot of every wiring at the end of a run, used to
// continue a search.
type Population struct {
	VersionedRecord
	ID      string   `json:"id"`
	RunID   string   `json:"run_id"`
	Wirings []Wiring `json:"wirings"`
}
