// Package autoload initializes the global logger from LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/coachdesk/coachdesk/pkg/config"
	logx "github.com/coachdesk/coachdesk/pkg/logger"
)

func init() {
	conf, err := configx.Load[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
