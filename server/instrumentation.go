package server

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/waypointhq/waypoint-core/server"

var logger = otelslog.NewLogger(scopeName)
