package server

// joinResponse answers POST /join with the player's identity and a full
// field snapshot to render from.
type joinResponse struct {
	Ver              int           `json:"ver"`
	ID               string        `json:"id"`
	Snapshot         WorldSnapshot `json:"snapshot"`
	Config           WorldConfig   `json:"config"`
	KeyframeInterval int           `json:"keyframeInterval,omitempty"`
}

// stateMessage is the per-tick broadcast: the patches since the previous
// broadcast plus the keyframe cursor clients resync against.
type stateMessage struct {
	Ver         int     `json:"ver"`
	Type        string  `json:"type"`
	Tick        uint64  `json:"t"`
	Sequence    uint64  `json:"sequence"`
	KeyframeSeq uint64  `json:"keyframeSeq,omitempty"`
	ServerTime  int64   `json:"serverTime"`
	Patches     []Patch `json:"patches"`
}

// keyframeMessage carries a retained full snapshot on request.
type keyframeMessage struct {
	Ver      int           `json:"ver"`
	Type     string        `json:"type"`
	Sequence uint64        `json:"sequence"`
	Tick     uint64        `json:"t"`
	State    WorldSnapshot `json:"state"`
	Config   WorldConfig   `json:"config"`
}

// keyframeNackMessage tells a client the requested snapshot is gone.
type keyframeNackMessage struct {
	Ver      int    `json:"ver"`
	Type     string `json:"type"`
	Sequence uint64 `json:"sequence"`
	Reason   string `json:"reason"`
}

// clientMessage is the inbound envelope for every socket command. Unused
// fields stay zero; Type picks which ones matter.
type clientMessage struct {
	Type     string `json:"type"`
	Facing   string `json:"facing,omitempty"`
	Sequence uint64 `json:"sequence,omitempty"`
	SentAt   int64  `json:"sentAt,omitempty"`
}

// heartbeatAckMessage answers a heartbeat with both clocks and the measured
// round trip.
type heartbeatAckMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// diagnosticsSubscriber exposes connection health for one player.
type diagnosticsSubscriber struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}
