package ports

import (
	"github.com/bnema/annoirc/internal/domain"
	"github.com/bnema/annoirc/internal/watch"
)

// ConfigMonitor publishes configuration snapshots. Every subscriber observes
// changes independently of the others.
type ConfigMonitor interface {
	Current() *domain.Config
	Subscribe() *watch.Subscriber[*domain.Config]
}
