package model

import "strconv"

// Status is the lifecycle state of a queued command.
type Status int

const (
	StatusPending      Status = 0
	StatusFetched      Status = 1
	StatusUploaded     Status = 2
	StatusFailed       Status = -1
	StatusUploadFailed Status = -2
	StatusCancelled    Status = -6
	StatusInternal     Status = -9
)

// Position is the point of the target's path the capture is taken at.
type Position int

const (
	PositionRising  Position = 1
	PositionZenith  Position = 2
	PositionSetting Position = 3
)

type Command struct {
	ID       int64  `json:"id"`
	Target   int64  `json:"target"`
	Position int64  `json:"position"`
	KeyName  string `json:"key_name"`
	KeyID    int64  `json:"key_id"`
	Status   Status `json:"status"`
	Datetime string `json:"datetime"`
}

// Cancellable reports whether the command can still be withdrawn.
func (c Command) Cancellable() bool {
	return c.Status == StatusPending
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFetched:
		return "fetched"
	case StatusUploaded:
		return "uploaded"
	case StatusFailed:
		return "failed"
	case StatusUploadFailed:
		return "upload failed"
	case StatusCancelled:
		return "cancelled"
	case StatusInternal:
		return "internal error"
	}
	return strconv.Itoa(int(s))
}

func (p Position) String() string {
	switch p {
	case PositionRising:
		return "rising"
	case PositionZenith:
		return "zenith"
	case PositionSetting:
		return "setting"
	}
	return strconv.Itoa(int(p))
}

// Key identifies a capture device. Devices authenticate with APIToken.
type Key struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	APIToken string `json:"api_token"`
}

// DeviceCommand is what a device receives when it polls for work.
type DeviceCommand struct {
	ID       int64 `json:"id"`
	Target   int64 `json:"target"`
	Position int64 `json:"position"`
}

// DeviceResponse reports the outcome of a command a device fetched or
// uploaded.
type DeviceResponse struct {
	Token    string `json:"token" validate:"required"`
	ID       int64  `json:"id" validate:"gt=0"`
	Response bool   `json:"response"`
}

// NewKeyRequest creates a key.
type NewKeyRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	return p >= PositionRising && p <= PositionSetting
}
