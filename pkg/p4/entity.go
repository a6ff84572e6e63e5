package p4

// Entity wraps one addressable device object. At most one field is set.
type Entity struct {
	TableEntry                   *TableEntry                   `json:"table_entry,omitempty"`
	CounterEntry                 *CounterEntry                 `json:"counter_entry,omitempty"`
	PacketReplicationEngineEntry *PacketReplicationEngineEntry `json:"packet_replication_engine_entry,omitempty"`
}

// TableEntry is a single match-action table row. TableID zero acts as a
// wildcard in read requests, matching every table.
type TableEntry struct {
	TableID         uint32        `json:"table_id"`
	Match           []*FieldMatch `json:"match,omitempty"`
	Action          *TableAction  `json:"action,omitempty"`
	Priority        int32         `json:"priority,omitempty"`
	IsDefaultAction bool          `json:"is_default_action,omitempty"`
	IdleTimeoutNs   int64         `json:"idle_timeout_ns,omitempty"`
}

// FieldMatch is one match key of a table entry. At most one match kind is set.
type FieldMatch struct {
	FieldID uint32        `json:"field_id"`
	Exact   []byte        `json:"exact,omitempty"`
	LPM     *LPMMatch     `json:"lpm,omitempty"`
	Ternary *TernaryMatch `json:"ternary,omitempty"`
}

// LPMMatch is a longest-prefix match key.
type LPMMatch struct {
	Value     []byte `json:"value"`
	PrefixLen int32  `json:"prefix_len"`
}

// TernaryMatch is a value/mask match key.
type TernaryMatch struct {
	Value []byte `json:"value"`
	Mask  []byte `json:"mask"`
}

// TableAction names the action invoked by a table entry and its arguments.
type TableAction struct {
	ActionID uint32         `json:"action_id"`
	Params   []*ActionParam `json:"params,omitempty"`
}

// ActionParam is one positional action argument.
type ActionParam struct {
	ParamID uint32 `json:"param_id"`
	Value   []byte `json:"value"`
}

// CounterEntry addresses a counter cell. CounterID zero acts as a wildcard
// in read requests; a nil Index selects every cell of the counter.
type CounterEntry struct {
	CounterID uint32        `json:"counter_id"`
	Index     *CounterIndex `json:"index,omitempty"`
	Data      *CounterData  `json:"data,omitempty"`
}

// CounterIndex selects one cell of an indexed counter.
type CounterIndex struct {
	Index int64 `json:"index"`
}

// CounterData holds the octet and packet counts of a counter cell.
type CounterData struct {
	ByteCount   int64 `json:"byte_count"`
	PacketCount int64 `json:"packet_count"`
}

// PacketReplicationEngineEntry configures multicast or clone replication.
// At most one field is set.
type PacketReplicationEngineEntry struct {
	MulticastGroupEntry *MulticastGroupEntry `json:"multicast_group_entry,omitempty"`
	CloneSessionEntry   *CloneSessionEntry   `json:"clone_session_entry,omitempty"`
}

// MulticastGroupEntry maps a group id to its replica set.
type MulticastGroupEntry struct {
	MulticastGroupID uint32     `json:"multicast_group_id"`
	Replicas         []*Replica `json:"replicas,omitempty"`
}

// CloneSessionEntry maps a clone session to its replica set.
type CloneSessionEntry struct {
	SessionID         uint32     `json:"session_id"`
	Replicas          []*Replica `json:"replicas,omitempty"`
	ClassOfService    uint32     `json:"class_of_service,omitempty"`
	PacketLengthBytes int32      `json:"packet_length_bytes,omitempty"`
}

// Replica is one egress port instance of a replication entry.
type Replica struct {
	EgressPort uint32 `json:"egress_port"`
	Instance   uint32 `json:"instance,omitempty"`
}
