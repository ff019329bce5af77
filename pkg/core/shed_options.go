// Copyright © 2018 One Concern

package core

import "go.uber.org/zap"

// ShedOption to configure a shed
type ShedOption func(*Shed)

// Exclude adds repo relative directories the managed file scan must not
// descend into. Version control internals and the shed itself are
// always excluded.
func Exclude(dirs []string) ShedOption {
	return func(s *Shed) {
		s.exclude = append(s.exclude, dirs...)
	}
}

// Logger sets a logger for shed operations. Defaults to a no-op logger.
func Logger(l *zap.Logger) ShedOption {
	return func(s *Shed) {
		if l != nil {
			s.l = l
		}
	}
}
