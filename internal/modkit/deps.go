// Package modkit provides module wiring and core deps
package modkit

import (
	"vqamerge/internal/platform/config"
	"vqamerge/internal/platform/logger"
	"vqamerge/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG and CH are nil unless the matching record sink is enabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}

// FromStore copies the opened seams of s onto d; a nil store leaves both nil
func (d Deps) FromStore(s *store.Store) Deps {
	if s != nil {
		d.PG, d.CH = s.PG, s.CH
	}
	return d
}
