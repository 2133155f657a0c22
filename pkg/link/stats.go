package link

// PacketStats holds cumulative traffic counters for one endpoint.
type PacketStats struct {
	PacketsSent     uint64  `json:"packets_sent"`
	PacketsReceived uint64  `json:"packets_received"`
	BytesSent       uint64  `json:"bytes_sent"`
	BytesReceived   uint64  `json:"bytes_received"`
	Errors          uint64  `json:"errors"`
	AvgLatencyUs    float64 `json:"avg_latency_us"`
}

// observeLatency folds a send-path latency sample into the running average.
// Samples of zero are ignored, so the first positive sample after a reset
// moves the average from 0 to 0.1 of the sample.
func (s *PacketStats) observeLatency(latencyUs uint64) {
	if latencyUs == 0 {
		return
	}
	s.AvgLatencyUs = s.AvgLatencyUs*0.9 + float64(latencyUs)*0.1
}

// CommResult is the outcome of one request/response exchange.
type CommResult struct {
	Success      bool   `json:"success"`
	Data         []byte `json:"data,omitempty"`
	LatencyUs    uint64 `json:"latency_us"`
	ErrorMessage string `json:"error_message,omitempty"`
}
