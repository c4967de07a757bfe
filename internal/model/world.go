package model

// WorldSnapshot is the payload of the initial INIT push and of
// REQUEST_SNAPSHOT responses (§3, §4.6). It is built from the cache, never
// from a live rescan.
type WorldSnapshot struct {
	WorldID            string           `json:"worldId"`
	WorldName          string           `json:"worldName"`
	Entities           []EntitySnapshot `json:"entities"`
	GameTimeEpochMilli *int64           `json:"gameTimeEpochMilli,omitempty"`
	GameTimeRate       *float64         `json:"gameTimeRate,omitempty"`
	ServerVersion      string           `json:"serverVersion"`
}
