// Package autoload initialises the global logger from LOG_* on import.
package autoload

import (
	configx "github.com/tanpawarit/hcp-interaction-agent/pkg/config"
	logx "github.com/tanpawarit/hcp-interaction-agent/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		return
	}
	logx.Init(*conf)
}
