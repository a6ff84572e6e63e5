package p4

// Uint128 is a 128-bit value split into two words. Election ids use it; a
// single-controller deployment keeps High at zero and Low at a small constant.
type Uint128 struct {
	High uint64 `json:"high,omitempty"`
	Low  uint64 `json:"low,omitempty"`
}

// UpdateType selects the mutation applied by one entry of a WriteRequest.
type UpdateType int

const (
	UpdateUnspecified UpdateType = iota
	UpdateInsert
	UpdateModify
	UpdateDelete
)

func (t UpdateType) String() string {
	switch t {
	case UpdateInsert:
		return "insert"
	case UpdateModify:
		return "modify"
	case UpdateDelete:
		return "delete"
	default:
		return "unspecified"
	}
}

// ConfigAction selects how the device applies a pipeline config push.
type ConfigAction int

const (
	ConfigActionUnspecified ConfigAction = iota
	ConfigVerify
	ConfigVerifyAndSave
	ConfigVerifyAndCommit
	ConfigCommit
)

func (a ConfigAction) String() string {
	switch a {
	case ConfigVerify:
		return "verify"
	case ConfigVerifyAndSave:
		return "verify-and-save"
	case ConfigVerifyAndCommit:
		return "verify-and-commit"
	case ConfigCommit:
		return "commit"
	default:
		return "unspecified"
	}
}

// Status carries a device-reported result code and message.
type Status struct {
	Code    int32  `json:"code"`
	Message string `json:"message,omitempty"`
}
