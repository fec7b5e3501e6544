package rentometer

import (
	"context"
	"time"

	"rental-analyzer/browser"
	"rental-analyzer/config"
	"rental-analyzer/tornet"
	"rental-analyzer/utils"
)

// Page is the DOM surface the estimator drives. Implementations report a
// missing node as browser.ErrElementNotFound.
type Page interface {
	Navigate(url string) error
	Attribute(sel, attr string) (string, bool, error)
	SetValue(sel, value string) error
	SelectOption(sel, value string) error
	Click(sel string) error
	Text(sel string) (string, error)
	Texts(sel string) ([]string, error)
}

// Session bundles an anonymizing network client with the browser proxied
// through it. The browser's proxy port is bound at launch, so the two are
// only ever created and torn down as a pair.
type Session interface {
	Page() Page
	Close()
}

// SessionFactory produces a fresh session pair. Each call yields a new TOR
// circuit and therefore a new apparent origin.
type SessionFactory func(ctx context.Context) (Session, error)

type torSession struct {
	tor     *tornet.Process
	browser *browser.Browser
}

func (s *torSession) Page() Page { return s.browser }

func (s *torSession) Close() {
	s.browser.Close()
	s.tor.Stop()
}

// NewTorSessionFactory returns the production SessionFactory: a supervised
// TOR process plus a headless Chrome proxied through its SOCKS port. The
// bootstrap wait gets its own deadline so a stalled circuit fails one
// acquisition attempt instead of hanging the run.
func NewTorSessionFactory(cfg *config.Config, logger *utils.Logger) SessionFactory {
	startupTimeout := time.Duration(cfg.TorStartupTimeoutMs) * time.Millisecond

	return func(ctx context.Context) (Session, error) {
		startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		defer cancel()

		tor, err := tornet.Start(startCtx, cfg.TorPath, cfg.TorSocksPort, logger)
		if err != nil {
			return nil, err
		}

		b, err := browser.Open(cfg.ChromeBin, tor.SocksPort,
			time.Duration(cfg.ActionTimeoutMs)*time.Millisecond,
			time.Duration(cfg.PageSettleMs)*time.Millisecond,
			logger)
		if err != nil {
			tor.Stop()
			return nil, err
		}

		return &torSession{tor: tor, browser: b}, nil
	}
}
