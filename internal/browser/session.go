// Package browser runs the curation engine against a live page in Chromium
// through Playwright.
package browser

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/curate"
)

// Sink receives engine events produced by the page.
type Sink interface {
	Post(ev curate.Event) bool
}

type Options struct {
	Headless bool
	// TimeoutMs bounds every Playwright call.
	TimeoutMs int
	// SkipInstall assumes the driver and browsers are already installed.
	SkipInstall bool
}

// Session owns one Chromium page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	doc     *Document
	inbox   chan signal
	started atomic.Bool
	log     zerolog.Logger
}

// Open starts Playwright and a single page. Close releases everything.
func Open(opts Options, log zerolog.Logger) (*Session, error) {
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	bctx, err := browser.NewContext()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("create page: %w", err)
	}
	if opts.TimeoutMs > 0 {
		page.SetDefaultTimeout(float64(opts.TimeoutMs))
	}

	return &Session{
		pw:      pw,
		browser: browser,
		context: bctx,
		page:    page,
		doc:     &Document{page: page, log: log},
		inbox:   make(chan signal, 256),
		log:     log,
	}, nil
}

// Document returns the live page for the engine.
func (s *Session) Document() *Document {
	return s.doc
}

// signal is one page callback waiting to become an engine event.
type signal struct {
	kind    string
	payload string
}

// enqueue never blocks: bindings run on the Playwright dispatcher, which the
// engine needs for its own page calls.
func (s *Session) enqueue(sig signal) {
	select {
	case s.inbox <- sig:
	default:
		s.log.Warn().Str("kind", sig.kind).Msg("page signal queue full, dropping")
	}
}

// Watch installs the page hooks, opens url and forwards page events to sink
// until ctx is cancelled.
func (s *Session) Watch(ctx context.Context, url string, sink Sink) error {
	bindings := map[string]func(args ...interface{}) interface{}{
		bindingMutations: func(args ...interface{}) interface{} {
			if len(args) > 0 {
				if payload, ok := args[0].(string); ok {
					s.enqueue(signal{kind: bindingMutations, payload: payload})
				}
			}
			return nil
		},
		bindingReady: func(...interface{}) interface{} {
			s.enqueue(signal{kind: bindingReady})
			return nil
		},
		bindingNavigate: func(...interface{}) interface{} {
			s.enqueue(signal{kind: bindingNavigate})
			return nil
		},
	}
	for name, fn := range bindings {
		if err := s.page.ExposeFunction(name, fn); err != nil {
			return fmt.Errorf("expose %s binding: %w", name, err)
		}
	}
	if err := s.page.AddInitScript(playwright.Script{Content: playwright.String(initScript())}); err != nil {
		return fmt.Errorf("add init script: %w", err)
	}

	go s.pump(ctx, sink)

	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	s.log.Info().Str("url", url).Msg("watching page")

	<-ctx.Done()
	return nil
}

func (s *Session) pump(ctx context.Context, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-s.inbox:
			ev, ok := s.toEvent(sig)
			if !ok {
				continue
			}
			if !sink.Post(ev) {
				return
			}
		}
	}
}

func (s *Session) toEvent(sig signal) (curate.Event, bool) {
	switch sig.kind {
	case bindingReady:
		// Every full page load runs the init script again and reports ready.
		if s.started.CompareAndSwap(false, true) {
			return curate.InitEvent{}, true
		}
		return curate.NavigationEvent{}, true
	case bindingNavigate:
		return curate.NavigationEvent{}, true
	case bindingMutations:
		records, err := decodeBatch(sig.payload)
		if err != nil {
			s.log.Warn().Err(err).Msg("drop mutation batch")
			return nil, false
		}
		batch := toMutations(records, s.doc.resolve)
		if len(batch) == 0 {
			return nil, false
		}
		return curate.MutationEvent{Batch: batch}, true
	}
	return nil, false
}

func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	_ = s.page.Close()
	_ = s.context.Close()
	_ = s.browser.Close()
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}
	return nil
}
