package moonraker

import (
	"encoding/json"
	"fmt"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint64 `json:"id"`
}

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      *uint64         `json:"id,omitempty"`
}

// RPCError is an error object returned by Moonraker.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("moonraker error %d: %s", e.Code, e.Message)
}

// Notification methods the daemon consumes.
const (
	NotifyStatusUpdate       = "notify_status_update"
	NotifyHistoryChanged     = "notify_history_changed"
	NotifyKlippyReady        = "notify_klippy_ready"
	NotifyKlippyShutdown     = "notify_klippy_shutdown"
	NotifyKlippyDisconnected = "notify_klippy_disconnected"
)
