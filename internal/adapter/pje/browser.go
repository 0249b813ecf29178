package pje

import (
	"context"
	"fmt"

	"CaseSync/internal/config"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	partyNameField = `//input[@placeholder='Nome da Parte' or contains(@id, 'nome')]`
	searchButton   = `//button[contains(text(), 'PESQUISAR') or contains(@id, 'pesquisar')]`
)

// Session is one headless browser bound to a single FetchCases call.
type Session interface {
	// Search submits term on the portal and returns the result page HTML.
	Search(ctx context.Context, term string) (string, error)
	Close() error
}

// SessionFactory starts a browser session.
type SessionFactory func(ctx context.Context, cfg *config.PJeSourceConfig, logger *logrus.Logger) (Session, error)

type chromeSession struct {
	cfg           *config.PJeSourceConfig
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewChromeSession launches Chrome through chromedp.
func NewChromeSession(ctx context.Context, cfg *config.PJeSourceConfig, logger *logrus.Logger) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debugf))

	// the first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	logger.WithField("headless", cfg.Headless).Info("chrome session started")

	return &chromeSession{
		cfg:           cfg,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}, nil
}

func (s *chromeSession) Search(ctx context.Context, term string) (string, error) {
	tctx, cancel := context.WithTimeout(s.browserCtx, s.cfg.PageTimeout+s.cfg.ResultsWait)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tctx,
		chromedp.Navigate(s.cfg.PortalURL),
		chromedp.WaitVisible(partyNameField, chromedp.BySearch),
		chromedp.Clear(partyNameField, chromedp.BySearch),
		chromedp.SendKeys(partyNameField, term, chromedp.BySearch),
		chromedp.Click(searchButton, chromedp.BySearch),
		chromedp.Sleep(s.cfg.ResultsWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("search %q: %w", term, err)
	}
	return html, nil
}

func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.browserCtx)
	s.cancelBrowser()
	s.cancelAlloc()
	return err
}
