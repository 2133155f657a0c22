package presets

// Merge applies a preset on top of base parameters. Zero-valued preset
// fields leave the base value in place, except with_checksum which is
// taken from the preset as-is.
func Merge(base Params, preset Preset) (Params, []string) {
	p := preset.Params
	out := base
	changed := make([]string, 0, 6)
	if p.PacketSize > 0 {
		out.PacketSize = p.PacketSize
		changed = append(changed, "packet_size")
	}
	if p.Count > 0 {
		out.Count = p.Count
		changed = append(changed, "count")
	}
	if p.DurationMs > 0 {
		out.DurationMs = p.DurationMs
		changed = append(changed, "duration_ms")
	}
	if p.TimeoutMs > 0 {
		out.TimeoutMs = p.TimeoutMs
		changed = append(changed, "timeout_ms")
	}
	if p.IntervalMs > 0 {
		out.IntervalMs = p.IntervalMs
		changed = append(changed, "interval_ms")
	}
	if p.Payload != "" {
		out.Payload = p.Payload
		changed = append(changed, "payload")
	}
	if p.WithChecksum != out.WithChecksum {
		out.WithChecksum = p.WithChecksum
		changed = append(changed, "with_checksum")
	}
	return out, changed
}
