package deepgram

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/waypointhq/waypoint-core/voice/speechtotext/deepgram"

var logger = otelslog.NewLogger(scopeName)
