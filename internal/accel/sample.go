package accel

// Sample is one timestamped acceleration reading in g. The timestamp is
// reconstructed from the sample index and the configured output data
// rate, not from bus-read wall-clock time.
type Sample struct {
	TimeS float64 `json:"time_s"`
	XG    float64 `json:"x_g"`
	YG    float64 `json:"y_g"`
	ZG    float64 `json:"z_g"`
}

// RunStats is the bookkeeping for one acquisition run.
type RunStats struct {
	OverflowCount    int `json:"overflow_count"`
	ReadCount        int `json:"read_count"`
	SamplesCollected int `json:"samples_collected"`
	ExpectedSamples  int `json:"expected_samples"`
	DataLossCount    int `json:"data_loss_count"`
}
