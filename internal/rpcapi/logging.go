package rpcapi

import "github.com/rs/zerolog"

// zlog is an optional structured logger; events are dropped when unset.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the RPC layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

func logger() *zerolog.Logger {
	if zlog == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return zlog
}
