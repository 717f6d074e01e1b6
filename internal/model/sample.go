package model

// Memory captures RAM and swap availability in bytes for precision.
type Memory struct {
	TotalBytes     uint64
	AvailableBytes uint64
	UsedPercent    float64
	SwapTotal      uint64
	SwapFree       uint64
	SwapPercent    float64
}

// Disk is the usage of one mounted filesystem.
type Disk struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
}

// NetCounters are cumulative per-interface byte counters.
type NetCounters struct {
	Name      string
	BytesSent uint64
	BytesRecv uint64
}

// GPU holds a single device snapshot.
type GPU struct {
	Index    int
	Name     string
	Util     float64 // percent
	MemUsed  uint64  // bytes
	MemTotal uint64  // bytes
}

// Track is the metadata of whatever a media player is currently playing.
type Track struct {
	Player string
	Status string // Playing, Paused, Stopped
	Artist string
	Album  string
	Title  string
}

// VPN is the connection state reported by the VPN client.
type VPN struct {
	Connected bool
	Relay     string
}
