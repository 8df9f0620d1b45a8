package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/marovet/roundsync/pkg/config"
)

// Session owns one headless-browser automation session. A session must not be
// shared across concurrent logins: the provider UI keeps per-session page
// state, and all operations run sequentially within it.
type Session struct {
	ctx         context.Context
	ctxCancel   context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration

	closeOnce sync.Once
}

var _ Page = (*Session)(nil)

// NewSession starts a browser and returns a live session. The caller must
// Close the session on every exit path.
func NewSession(ctx context.Context, cfg *config.ProviderConfig) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(1440, 1080),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// Starting the browser lazily on first Run would blur error attribution,
	// so force it up front.
	startCtx, cancel := context.WithTimeout(taskCtx, cfg.NavTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		ctx:         taskCtx,
		ctxCancel:   taskCancel,
		allocCancel: allocCancel,
		navTimeout:  cfg.NavTimeout,
	}, nil
}

// Close tears down the browser session. Idempotent and safe on an
// already-closed session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.ctxCancel()
		s.allocCancel()
	})
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Navigate loads the given URL
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

// Location returns the current page URL
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

// WaitVisible blocks until the selector is visible
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Fill types value into the first element matching selector
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

// Click clicks the first element matching selector
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// ClickByText clicks the first visible affordance whose text contains any of
// the labels. The provider's button copy is not contractually stable, so
// callers pass a broad label set and fall back to direct navigation when
// nothing matches.
func (s *Session) ClickByText(ctx context.Context, labels []string) (bool, error) {
	lowered := make([]string, len(labels))
	for i, l := range labels {
		lowered[i] = strings.ToLower(l)
	}
	arg, err := json.Marshal(lowered)
	if err != nil {
		return false, err
	}

	script := fmt.Sprintf(`(function(labels) {
		const nodes = document.querySelectorAll('button, a, [role="button"], input[type="submit"]');
		for (const n of nodes) {
			const text = ((n.innerText || n.value || '') + ' ' + (n.getAttribute('aria-label') || '')).trim().toLowerCase();
			if (!text) continue;
			if (n.offsetParent === null && n.getClientRects().length === 0) continue;
			for (const label of labels) {
				if (text.includes(label)) { n.click(); return true; }
			}
		}
		return false;
	})(%s)`, arg)

	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

// EnterPin fills a confirmation code into whatever PIN input shape the page
// renders: N single-digit boxes, or one combined field.
func (s *Session) EnterPin(ctx context.Context, code string) (bool, error) {
	arg, err := json.Marshal(code)
	if err != nil {
		return false, err
	}

	script := fmt.Sprintf(`(function(code) {
		const set = (el, v) => {
			const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
			setter.call(el, v);
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
		};
		const visible = el => el.offsetParent !== null || el.getClientRects().length > 0;
		const digits = Array.from(document.querySelectorAll('input[maxlength="1"]')).filter(visible);
		if (digits.length >= code.length) {
			for (let i = 0; i < code.length; i++) set(digits[i], code[i]);
			return true;
		}
		const inputs = Array.from(document.querySelectorAll('input[type="tel"], input[type="number"], input[type="password"], input[type="text"]'))
			.filter(el => visible(el) && (el.maxLength < 0 || el.maxLength >= code.length));
		const hinted = inputs.find(el => /pin|code|confirm/i.test((el.name || '') + (el.id || '') + (el.placeholder || '')));
		const target = hinted || inputs[0];
		if (!target) return false;
		set(target, code);
		return true;
	})(%s)`, arg)

	var filled bool
	if err := s.run(ctx, chromedp.Evaluate(script, &filled)); err != nil {
		return false, err
	}
	return filled, nil
}

// VisibleText returns the rendered text of the whole view. This is a
// deliberate choice over per-row DOM queries: the provider's DOM churns, its
// rendered text layout far less.
func (s *Session) VisibleText(ctx context.Context) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text)); err != nil {
		return "", err
	}
	return text, nil
}

// Screenshot captures the current viewport as PNG
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 80)); err != nil {
		return nil, err
	}
	return buf, nil
}
